package clip

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"clipkeeper/internal/domain/upload"
)

const barWidth = 30

// progressPrinter рисует прогресс загрузки: полосой в терминале,
// построчно при выводе в файл или пайп
type progressPrinter struct {
	out io.Writer
	tty bool
}

func newProgressPrinter() *progressPrinter {
	return &progressPrinter{
		out: os.Stdout,
		tty: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

func (p *progressPrinter) observe(pr upload.Progress) {
	if !p.tty {
		fmt.Fprintf(p.out, "%-9s %3d%% %s\n", pr.Status, pr.Percent, pr.Message)
		return
	}

	filled := pr.Percent * barWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	fmt.Fprintf(p.out, "\r\033[K[%s] %3d%% %s", bar, pr.Percent, pr.Message)

	if pr.Status.Terminal() {
		fmt.Fprintln(p.out)
	}
}

// elapsed показывает длительность идущей записи
func (p *progressPrinter) elapsed(seconds int) {
	if !p.tty {
		return
	}
	fmt.Fprintf(p.out, "\r\033[K● Запись %02d:%02d", seconds/60, seconds%60)
}

func (p *progressPrinter) done() {
	if p.tty {
		fmt.Fprintln(p.out)
	}
}

package client

import "time"

// RemoteVideo - клип, как его видит сервер приема
type RemoteVideo struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	ContentType string    `json:"content_type" yaml:"content_type"`
	Size        int64     `json:"size" yaml:"size"`
	Checksum    string    `json:"checksum" yaml:"checksum"`
	URL         string    `json:"url" yaml:"url"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

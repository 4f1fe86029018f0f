package domain

import (
	"testing"
	"time"
)

func TestDownloadRequest_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   DownloadRequest
		want DownloadRequest
	}{
		{
			name: "zero tuning fields get defaults",
			in:   DownloadRequest{MaxRetries: 0},
			want: DownloadRequest{
				MaxRetries: 0,
				RetryDelay: DefaultRetryDelay,
				Timeout:    DefaultTimeout,
			},
		},
		{
			name: "values above range are clamped down",
			in: DownloadRequest{
				MaxRetries: 25,
				RetryDelay: 5 * time.Minute,
				Timeout:    time.Hour,
			},
			want: DownloadRequest{
				MaxRetries: MaxMaxRetries,
				RetryDelay: MaxRetryDelay,
				Timeout:    MaxTimeout,
			},
		},
		{
			name: "values below range are clamped up",
			in: DownloadRequest{
				MaxRetries: -1,
				RetryDelay: time.Millisecond,
				Timeout:    time.Second,
			},
			want: DownloadRequest{
				MaxRetries: MinMaxRetries,
				RetryDelay: MinRetryDelay,
				Timeout:    MinTimeout,
			},
		},
		{
			name: "in-range values pass through",
			in: DownloadRequest{
				MaxRetries: 7,
				RetryDelay: 2 * time.Second,
				Timeout:    45 * time.Second,
			},
			want: DownloadRequest{
				MaxRetries: 7,
				RetryDelay: 2 * time.Second,
				Timeout:    45 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.in
			r.Normalize()
			if r.MaxRetries != tt.want.MaxRetries {
				t.Errorf("MaxRetries = %d, want %d", r.MaxRetries, tt.want.MaxRetries)
			}
			if r.RetryDelay != tt.want.RetryDelay {
				t.Errorf("RetryDelay = %v, want %v", r.RetryDelay, tt.want.RetryDelay)
			}
			if r.Timeout != tt.want.Timeout {
				t.Errorf("Timeout = %v, want %v", r.Timeout, tt.want.Timeout)
			}
		})
	}
}

func TestDownloadRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     DownloadRequest
		wantErr bool
	}{
		{
			name: "valid http request",
			req:  DownloadRequest{URL: "http://example.com/a.pdf", DestinationDir: "/tmp"},
		},
		{
			name: "valid https request",
			req:  DownloadRequest{URL: "https://example.com/a.pdf", DestinationDir: "/tmp"},
		},
		{
			name:    "missing url",
			req:     DownloadRequest{DestinationDir: "/tmp"},
			wantErr: true,
		},
		{
			name:    "missing destination",
			req:     DownloadRequest{URL: "https://example.com/a.pdf"},
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			req:     DownloadRequest{URL: "ftp://example.com/a.pdf", DestinationDir: "/tmp"},
			wantErr: true,
		},
		{
			name:    "missing host",
			req:     DownloadRequest{URL: "https:///a.pdf", DestinationDir: "/tmp"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsConfigError(err) {
				t.Errorf("Validate() error should be a ConfigError, got %T", err)
			}
		})
	}
}

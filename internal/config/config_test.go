package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name:    "missing token",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "token only, defaults applied",
			env:  map[string]string{"TELEGRAM_BOT_TOKEN": "test-token"},
			want: &Config{
				TelegramBotToken:     "test-token",
				DatabasePath:         "./data/bot.db",
				LogLevel:             "info",
				CheckIntervalMinutes: 30,
				AllowedUsers:         nil,
			},
		},
		{
			name: "all values set",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":     "tok",
				"DATABASE_PATH":          "/tmp/bot.db",
				"LOG_LEVEL":              "debug",
				"CHECK_INTERVAL_MINUTES": "5",
				"ALLOWED_USERS":          "111,222,333",
			},
			want: &Config{
				TelegramBotToken:     "tok",
				DatabasePath:         "/tmp/bot.db",
				LogLevel:             "debug",
				CheckIntervalMinutes: 5,
				AllowedUsers:         []int64{111, 222, 333},
			},
		},
		{
			name: "allowed users with spaces",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ALLOWED_USERS":      " 10 , 20 , ",
			},
			want: &Config{
				TelegramBotToken:     "tok",
				DatabasePath:         "./data/bot.db",
				LogLevel:             "info",
				CheckIntervalMinutes: 30,
				AllowedUsers:         []int64{10, 20},
			},
		},
		{
			name: "invalid allowed user",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ALLOWED_USERS":      "10,abc",
			},
			wantErr: true,
		},
		{
			name: "interval out of range",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":     "tok",
				"CHECK_INTERVAL_MINUTES": "0",
			},
			wantErr: true,
		},
		{
			name: "interval not a number",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":     "tok",
				"CHECK_INTERVAL_MINUTES": "soon",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"TELEGRAM_BOT_TOKEN", "DATABASE_PATH", "LOG_LEVEL", "CHECK_INTERVAL_MINUTES", "ALLOWED_USERS"} {
				t.Setenv(key, tt.env[key])
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsUserAllowed(t *testing.T) {
	tests := []struct {
		name   string
		users  []int64
		userID int64
		want   bool
	}{
		{name: "empty list allows everyone", users: nil, userID: 42, want: true},
		{name: "listed user allowed", users: []int64{1, 2, 3}, userID: 2, want: true},
		{name: "unlisted user denied", users: []int64{1, 2, 3}, userID: 9, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{AllowedUsers: tt.users}
			if got := c.IsUserAllowed(tt.userID); got != tt.want {
				t.Errorf("IsUserAllowed(%d) = %v, want %v", tt.userID, got, tt.want)
			}
		})
	}
}

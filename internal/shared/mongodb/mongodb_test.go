package mongodb

import (
	"context"
	"testing"
)

func TestValidateMongoURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		wantErr bool
	}{
		{
			name:    "valid mongodb URI",
			uri:     "mongodb://localhost:27017",
			wantErr: false,
		},
		{
			name:    "valid mongodb+srv URI",
			uri:     "mongodb+srv://cluster.mongodb.net",
			wantErr: false,
		},
		{
			name:    "empty URI",
			uri:     "",
			wantErr: true,
		},
		{
			name:    "invalid scheme",
			uri:     "http://localhost:27017",
			wantErr: true,
		},
		{
			name:    "missing host",
			uri:     "mongodb://",
			wantErr: true,
		},
		{
			name:    "malformed URI",
			uri:     "not-a-valid-uri",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateMongoURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateMongoURI() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewMongoClient_Validation(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		database string
	}{
		{name: "empty database name", uri: "mongodb://localhost:27017", database: ""},
		{name: "database name with slash", uri: "mongodb://localhost:27017", database: "test/db"},
		{name: "database name with dot", uri: "mongodb://localhost:27017", database: "test.db"},
		{name: "database name with dollar", uri: "mongodb://localhost:27017", database: "test$db"},
		{name: "bad scheme", uri: "postgres://localhost:5432", database: "users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Validation fails before any network activity.
			if _, err := NewMongoClient(context.Background(), tt.uri, tt.database); err == nil {
				t.Errorf("NewMongoClient() expected error for %s", tt.name)
			}
		})
	}
}

package users

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// credentialsFile is the on-disk layout of a file backend:
//
//	users:
//	  - username: test
//	    password_hash: $2a$10$...
//	    authorizations: [A, B]
type credentialsFile struct {
	Users []*User `yaml:"users"`
}

// LoadFile reads a YAML credentials file into an in-memory repository.
func LoadFile(path string) (*InMemoryRepo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[users LoadFile] read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f credentialsFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("[users LoadFile] parse %s: %w", path, err)
	}

	repo, err := NewInMemoryRepo(f.Users...)
	if err != nil {
		return nil, fmt.Errorf("[users LoadFile] %s: %w", path, err)
	}
	return repo, nil
}

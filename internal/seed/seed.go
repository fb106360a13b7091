// Package seed replaces the operator accounts with the ones listed in a
// YAML file. It wipes every existing account first and is meant for
// bootstrapping or resetting a fresh install.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"sainmakosam/internal/core/model"
	"sainmakosam/internal/core/repository"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// File is the seed file layout:
//
//	users:
//	  - username: datta
//	    password: <choose one>
type File struct {
	Users []Account `yaml:"users"`
}

type Account struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("seed file is empty")
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &file, nil
}

// Users hashes every account, then deletes all stored accounts and writes
// the new ones. Nothing is deleted if any account in file is invalid.
func Users(ctx context.Context, repo repository.UserRepository, file *File) (int, error) {
	if len(file.Users) == 0 {
		return 0, fmt.Errorf("seed file lists no users")
	}

	users := make([]*model.User, 0, len(file.Users))
	seen := make(map[string]bool, len(file.Users))
	for i, acc := range file.Users {
		user := model.NewUser(acc.Username, acc.Password)
		if err := user.PrepareForSave(); err != nil {
			return 0, fmt.Errorf("user %d: %w", i+1, err)
		}
		// Usernames are matched exactly, as at login.
		if seen[user.Username] {
			return 0, fmt.Errorf("user %d: duplicate username %q", i+1, user.Username)
		}
		seen[user.Username] = true
		users = append(users, user)
	}

	deleted, err := repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete existing users: %w", err)
	}
	logrus.WithField("count", deleted).Warn("Deleted existing operator accounts")

	for i, user := range users {
		if err := repo.Create(ctx, user); err != nil {
			return i, fmt.Errorf("create user %q: %w", user.Username, err)
		}
		logrus.WithField("username", user.Username).Info("User created")
	}
	return len(users), nil
}

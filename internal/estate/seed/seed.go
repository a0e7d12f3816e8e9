// Package seed loads the reference catalog and demo accounts.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/store"
	"github.com/aussiebroadwan/estate/pkg/cryptox"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultData []byte

type User struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Data is a seed document.
type Data struct {
	Categories []string `yaml:"categories"`
	PriceBands []string `yaml:"price_bands"`
	Users      []User   `yaml:"users"`
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(b []byte) (Data, error) {
	var d Data
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return Data{}, fmt.Errorf("parse seed data: %w", err)
	}
	return d, d.validate()
}

// Load reads the document at path, or the embedded default when path is
// empty.
func Load(path string) (Data, error) {
	if path == "" {
		return Parse(defaultData)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	return Parse(b)
}

func (d Data) validate() error {
	for i, name := range d.Categories {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("categories[%d]: empty name", i)
		}
	}
	for i, name := range d.PriceBands {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("price_bands[%d]: empty name", i)
		}
	}
	for i, u := range d.Users {
		if u.Name == "" || u.Email == "" || u.Password == "" {
			return fmt.Errorf("users[%d]: name, email and password are required", i)
		}
	}
	return nil
}

// Result counts what Import inserted.
type Result struct {
	Categories int
	PriceBands int
	Users      int
}

// Import inserts everything in d in one transaction. Users are created
// confirmed.
func Import(ctx context.Context, st store.Store, d Data) (Result, error) {
	// Hash outside the transaction; argon2 is slow and sqlite holds one connection.
	users := make([]domain.User, 0, len(d.Users))
	for _, u := range d.Users {
		hash, err := cryptox.HashPassword(u.Password)
		if err != nil {
			return Result{}, fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		users = append(users, domain.User{Name: u.Name, Email: u.Email, PasswordHash: hash, Confirmed: true})
	}

	var res Result
	err := st.WithTx(ctx, func(tx store.Tx) error {
		for _, name := range d.Categories {
			if _, err := tx.Categories().CreateCategory(ctx, name); err != nil {
				return fmt.Errorf("create category %q: %w", name, err)
			}
			res.Categories++
		}
		for _, name := range d.PriceBands {
			if _, err := tx.PriceBands().CreatePriceBand(ctx, name); err != nil {
				return fmt.Errorf("create price band %q: %w", name, err)
			}
			res.PriceBands++
		}
		for _, u := range users {
			if _, err := tx.Users().CreateUser(ctx, u); err != nil {
				return fmt.Errorf("create user %s: %w", u.Email, err)
			}
			res.Users++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Purge deletes all price bands and categories. It fails while listings
// still reference them.
func Purge(ctx context.Context, st store.Store) error {
	return st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.PriceBands().DeleteAllPriceBands(ctx); err != nil {
			return fmt.Errorf("delete price bands: %w", err)
		}
		if err := tx.Categories().DeleteAllCategories(ctx); err != nil {
			return fmt.Errorf("delete categories: %w", err)
		}
		return nil
	})
}

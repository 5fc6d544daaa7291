package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	"github.com/dandihub/dandinotes/internal/domain"
)

var tracer = otel.Tracer("auth")

const (
	moderatorsCacheKey = "moderators"
	usersCacheKey      = "users"
)

// Credential is one entry in a credential store file.
type Credential struct {
	PasswordHash     string `yaml:"password_hash"`
	Name             string `yaml:"name,omitempty"`
	Email            string `yaml:"email,omitempty"`
	RegistrationDate string `yaml:"registration_date,omitempty"`
}

type moderatorsFile struct {
	Moderators map[string]Credential `yaml:"moderators"`
}

type usersFile struct {
	Users map[string]Credential `yaml:"users"`
}

// AuthService verifies credentials against two static YAML stores:
// moderators (keyed by username) and users (keyed by email). Both are
// loaded lazily and cached for the process lifetime; registration is
// the only write path and refreshes the cache.
type AuthService struct {
	moderatorsPath string
	usersPath      string
	store          *cache.Cache
}

func NewAuthService(moderatorsPath, usersPath string) *AuthService {
	return &AuthService{
		moderatorsPath: moderatorsPath,
		usersPath:      usersPath,
		store:          cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

func (s *AuthService) moderators() (map[string]Credential, error) {
	if cached, ok := s.store.Get(moderatorsCacheKey); ok {
		return cached.(map[string]Credential), nil
	}
	var file moderatorsFile
	if err := loadYAML(s.moderatorsPath, &file); err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
	}
	if file.Moderators == nil {
		file.Moderators = map[string]Credential{}
	}
	s.store.Set(moderatorsCacheKey, file.Moderators, cache.NoExpiration)
	return file.Moderators, nil
}

func (s *AuthService) users() (map[string]Credential, error) {
	if cached, ok := s.store.Get(usersCacheKey); ok {
		return cached.(map[string]Credential), nil
	}
	var file usersFile
	if err := loadYAML(s.usersPath, &file); err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
	}
	if file.Users == nil {
		file.Users = map[string]Credential{}
	}
	s.store.Set(usersCacheKey, file.Users, cache.NoExpiration)
	return file.Users, nil
}

// VerifyCredentials checks the moderator store first, then the user
// store. Returns (nil, nil) when no entry matches.
func (s *AuthService) VerifyCredentials(ctx context.Context, username, password string) (*domain.Principal, error) {
	_, span := tracer.Start(ctx, "Auth.Service.VerifyCredentials")
	defer span.End()

	moderators, err := s.moderators()
	if err != nil {
		return nil, err
	}
	if cred, ok := moderators[username]; ok && checkPassword(cred.PasswordHash, password) {
		return &domain.Principal{
			Username: username,
			Name:     orDefault(cred.Name, username),
			Email:    orDefault(cred.Email, username),
			Role:     domain.RoleModerator,
		}, nil
	}

	users, err := s.users()
	if err != nil {
		return nil, err
	}
	if cred, ok := users[username]; ok && checkPassword(cred.PasswordHash, password) {
		return &domain.Principal{
			Username: username,
			Name:     orDefault(cred.Name, username),
			Email:    username,
			Role:     domain.RoleUser,
		}, nil
	}

	return nil, nil
}

// Register creates a user entry keyed by email and persists the user
// store. Returns false when the email exists in either store.
func (s *AuthService) Register(ctx context.Context, email, password string) (bool, error) {
	_, span := tracer.Start(ctx, "Auth.Service.Register")
	defer span.End()

	users, err := s.users()
	if err != nil {
		return false, err
	}
	moderators, err := s.moderators()
	if err != nil {
		return false, err
	}
	if _, ok := users[email]; ok {
		return false, nil
	}
	if _, ok := moderators[email]; ok {
		return false, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	updated := make(map[string]Credential, len(users)+1)
	for k, v := range users {
		updated[k] = v
	}
	updated[email] = Credential{
		PasswordHash:     hash,
		Name:             strings.SplitN(email, "@", 2)[0],
		RegistrationDate: time.Now().Format(time.RFC3339),
	}

	if err := saveYAML(s.usersPath, usersFile{Users: updated}); err != nil {
		return false, err
	}
	s.store.Set(usersCacheKey, updated, cache.NoExpiration)
	return true, nil
}

// AddModerator persists a moderator entry. Fails if the username is taken.
func (s *AuthService) AddModerator(ctx context.Context, username, password, name, email string) error {
	moderators, err := s.moderators()
	if err != nil {
		return err
	}
	if _, ok := moderators[username]; ok {
		return errors.Errorf("moderator %q already exists", username)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	updated := make(map[string]Credential, len(moderators)+1)
	for k, v := range moderators {
		updated[k] = v
	}
	updated[username] = Credential{
		PasswordHash: hash,
		Name:         name,
		Email:        email,
	}

	if err := saveYAML(s.moderatorsPath, moderatorsFile{Moderators: updated}); err != nil {
		return err
	}
	s.store.Set(moderatorsCacheKey, updated, cache.NoExpiration)
	return nil
}

// HashPassword produces a bcrypt hash at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func loadYAML(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.Wrapf(yaml.Unmarshal(raw, out), "parsing %s", path)
}

func saveYAML(path string, in any) error {
	raw, err := yaml.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encoding credential store")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(path))
	}
	return errors.Wrapf(os.WriteFile(path, raw, 0o600), "writing %s", path)
}

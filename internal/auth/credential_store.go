package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/okamoto/oracle-hr-api/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserExists is returned when seeding a username that is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingCredentials is returned when a username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
)

// TokenIssuer signs a token for an authenticated user.
type TokenIssuer interface {
	Issue(username, role string) (models.Token, error)
}

// CredentialStore keeps seeded users in memory. Contents are lost when the
// process exits.
type CredentialStore struct {
	users  map[string]models.Credential
	mu     sync.RWMutex
	issuer TokenIssuer
	cost   int
	// compared against for unknown users so both failure paths pay for one
	// bcrypt comparison
	dummyHash []byte
	logger    *zap.Logger
}

// NewCredentialStore creates an empty credential store
func NewCredentialStore(issuer TokenIssuer, cost int, logger *zap.Logger) (*CredentialStore, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare credential store: %w", err)
	}

	return &CredentialStore{
		users:     make(map[string]models.Credential),
		issuer:    issuer,
		cost:      cost,
		dummyHash: dummy,
		logger:    logger,
	}, nil
}

// Seed adds a user. Usernames are matched exactly and case-sensitively.
func (cs *CredentialStore) Seed(username, password, role string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}

	// Hash outside the lock; bcrypt is deliberately slow.
	hash, err := bcrypt.GenerateFromPassword(preHash(username, password), cs.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if _, exists := cs.users[username]; exists {
		cs.logger.Info("seed rejected, user exists", zap.String("username", username))
		return ErrUserExists
	}

	cs.users[username] = models.Credential{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}

	cs.logger.Info("user seeded",
		zap.String("username", username),
		zap.String("role", role))

	return nil
}

// Login verifies the password and issues a token. Unknown users and wrong
// passwords both return ErrInvalidCredentials.
func (cs *CredentialStore) Login(username, password string) (models.Token, error) {
	cred, exists := cs.lookup(username)

	hash := cs.dummyHash
	if exists {
		hash = []byte(cred.PasswordHash)
	}

	err := bcrypt.CompareHashAndPassword(hash, preHash(username, password))
	if !exists || err != nil {
		cs.logger.Info("login failed", zap.String("username", username))
		return models.Token{}, ErrInvalidCredentials
	}

	token, err := cs.issuer.Issue(cred.Username, cred.Role)
	if err != nil {
		return models.Token{}, fmt.Errorf("failed to issue token: %w", err)
	}

	cs.logger.Debug("login succeeded",
		zap.String("username", username),
		zap.Time("expires_at", token.ExpiresAt))

	return token, nil
}

// Len returns the number of seeded users
func (cs *CredentialStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	return len(cs.users)
}

func (cs *CredentialStore) lookup(username string) (models.Credential, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	cred, exists := cs.users[username]
	return cred, exists
}

// preHash binds the password to the username and keeps bcrypt's input under
// its 72 byte limit.
func preHash(username, password string) []byte {
	mac := hmac.New(sha256.New, []byte(username))
	mac.Write([]byte(password))
	sum := mac.Sum(nil)

	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum)
	return out
}

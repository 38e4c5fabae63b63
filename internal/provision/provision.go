package provision

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hostfold/hostfold/internal/hestia"
	"github.com/hostfold/hostfold/internal/store"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrWebsiteNotFound  = errors.New("website not found")
	ErrInvalidName      = errors.New("invalid website name")
	ErrInvalidDomain    = errors.New("invalid domain")
	ErrSubdomainTaken   = errors.New("subdomain already in use")
	ErrDomainTaken      = errors.New("custom domain already in use")
	ErrDatabaseExists   = errors.New("database already exists")
)

// QuotaError reports a package ceiling that blocked provisioning.
type QuotaError struct {
	Resource string
	Limit    int
	Current  int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exceeded: limit %d, currently %d", e.Resource, e.Limit, e.Current)
}

var domainRe = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// Service provisions websites and databases on the remote panel and
// mirrors them into the local record store.
type Service struct {
	customers     *store.CustomerStore
	websites      *store.WebsiteStore
	databases     *store.DatabaseStore
	packages      *store.PackageStore
	activity      *store.ActivityStore
	panel         hestia.Invoker
	primaryDomain string
	logger        *slog.Logger
}

func NewService(cs *store.CustomerStore, ws *store.WebsiteStore, ds *store.DatabaseStore, ps *store.PackageStore, as *store.ActivityStore, panel hestia.Invoker, primaryDomain string, logger *slog.Logger) *Service {
	return &Service{
		customers:     cs,
		websites:      ws,
		databases:     ds,
		packages:      ps,
		activity:      as,
		panel:         panel,
		primaryDomain: primaryDomain,
		logger:        logger,
	}
}

// Slugify derives the canonical subdomain label from a requested name.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > 63 {
		out = out[:63]
	}
	return out
}

func randomSecret() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

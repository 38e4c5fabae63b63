package provision

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hostfold/hostfold/internal/hestia"
	"github.com/hostfold/hostfold/internal/model"
)

var phpVersions = map[string]bool{
	"7.4": true, "8.0": true, "8.1": true, "8.2": true, "8.3": true,
}

type CreateWebsiteRequest struct {
	Name       string `json:"name"`
	PHPVersion string `json:"php_version"`
	EnableSSL  bool   `json:"enable_ssl"`
}

// CreateWebsite allocates a subdomain under the primary domain, creates
// the remote web domain, and records the website locally. Certificate
// issuance is decoupled from provisioning success: an SSL failure
// leaves the site SSL_PENDING instead of failing the operation.
func (s *Service) CreateWebsite(ctx context.Context, customerEmail string, req CreateWebsiteRequest, actorID *int64) (*model.Website, error) {
	customer, err := s.customers.GetByEmail(customerEmail)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	pkg, err := s.packages.GetByID(customer.PackageID)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}
	if pkg != nil && pkg.WebsiteLimit > 0 {
		count, err := s.websites.CountByCustomer(customer.ID)
		if err != nil {
			return nil, fmt.Errorf("count websites: %w", err)
		}
		if count >= pkg.WebsiteLimit {
			return nil, &QuotaError{Resource: "website", Limit: pkg.WebsiteLimit, Current: count}
		}
	}

	slug := Slugify(req.Name)
	if slug == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, req.Name)
	}
	phpVersion := req.PHPVersion
	if phpVersion == "" {
		phpVersion = "8.2"
	}
	if !phpVersions[phpVersion] {
		return nil, fmt.Errorf("%w: unsupported php version %q", ErrInvalidName, req.PHPVersion)
	}

	subdomain := slug + "." + s.primaryDomain

	// Global uniqueness across all customers, checked before any remote call.
	existing, err := s.websites.GetBySubdomain(subdomain)
	if err != nil {
		return nil, fmt.Errorf("check subdomain: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrSubdomainTaken, subdomain)
	}

	// Blocking: no local write when the panel refuses the domain.
	if _, err := s.panel.Invoke(ctx, hestia.AddWebDomain{User: customer.HestiaUsername, Domain: subdomain}, hestia.FormatDefault); err != nil {
		return nil, fmt.Errorf("add web domain %s: %w", subdomain, err)
	}

	status := model.WebsiteActive
	sslVerified := false
	if req.EnableSSL {
		if err := s.issueSSL(ctx, customer.HestiaUsername, subdomain); err != nil {
			status = model.WebsiteSSLPending
			s.logger.Warn("ssl issuance failed", "domain", subdomain, "error", err)
		} else {
			sslVerified = true
		}
	}

	website, err := s.websites.Create(customer.ID, req.Name, subdomain, status, phpVersion, req.EnableSSL, req.EnableSSL)
	if err != nil {
		return nil, fmt.Errorf("insert website: %w", err)
	}
	if sslVerified {
		website, err = s.websites.UpdateSSL(website.ID, true, true, true, status)
		if err != nil {
			return nil, fmt.Errorf("update website ssl: %w", err)
		}
	}

	meta, _ := json.Marshal(map[string]any{"subdomain": subdomain, "ssl": req.EnableSSL, "status": status})
	if _, err := s.activity.Append(actorID, "create_website", "website", website.ID,
		fmt.Sprintf("website %s provisioned for %s", subdomain, customer.Email),
		"success", string(meta)); err != nil {
		s.logger.Error("append activity", "error", err)
	}

	return website, nil
}

// AttachCustomDomain adds the domain as a remote alias of the website's
// subdomain and records it locally. The base website must already exist.
func (s *Service) AttachCustomDomain(ctx context.Context, websiteID int64, domain string, actorID *int64) (*model.Website, error) {
	website, err := s.websites.GetByID(websiteID)
	if err != nil {
		return nil, fmt.Errorf("load website: %w", err)
	}
	if website == nil {
		return nil, ErrWebsiteNotFound
	}

	if !domainRe.MatchString(domain) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}

	existing, err := s.websites.GetByCustomDomain(domain)
	if err != nil {
		return nil, fmt.Errorf("check custom domain: %w", err)
	}
	if existing != nil && existing.ID != websiteID {
		return nil, fmt.Errorf("%w: %s", ErrDomainTaken, domain)
	}

	customer, err := s.customers.GetByID(website.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	if _, err := s.panel.Invoke(ctx, hestia.AddWebDomainAlias{
		User:   customer.HestiaUsername,
		Domain: website.Subdomain,
		Alias:  domain,
	}, hestia.FormatDefault); err != nil {
		return nil, fmt.Errorf("add domain alias %s: %w", domain, err)
	}

	website, err = s.websites.SetCustomDomain(websiteID, domain)
	if err != nil {
		return nil, fmt.Errorf("set custom domain: %w", err)
	}

	meta, _ := json.Marshal(map[string]any{"custom_domain": domain})
	if _, err := s.activity.Append(actorID, "attach_domain", "website", websiteID,
		fmt.Sprintf("custom domain %s attached to %s", domain, website.Subdomain),
		"success", string(meta)); err != nil {
		s.logger.Error("append activity", "error", err)
	}

	return website, nil
}

// EnableSSL re-drives certificate issuance, typically for a site left
// SSL_PENDING by provisioning. Unlike the provisioning step this is an
// explicit operation, so failure is returned rather than absorbed.
func (s *Service) EnableSSL(ctx context.Context, websiteID int64, actorID *int64) (*model.Website, error) {
	website, err := s.websites.GetByID(websiteID)
	if err != nil {
		return nil, fmt.Errorf("load website: %w", err)
	}
	if website == nil {
		return nil, ErrWebsiteNotFound
	}

	customer, err := s.customers.GetByID(website.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	if err := s.issueSSL(ctx, customer.HestiaUsername, website.Domain()); err != nil {
		return nil, err
	}

	website, err = s.websites.UpdateSSL(websiteID, true, true, true, model.WebsiteActive)
	if err != nil {
		return nil, fmt.Errorf("update website ssl: %w", err)
	}

	if _, err := s.activity.Append(actorID, "enable_ssl", "website", websiteID,
		fmt.Sprintf("certificate issued for %s", website.Domain()),
		"success", ""); err != nil {
		s.logger.Error("append activity", "error", err)
	}
	return website, nil
}

func (s *Service) issueSSL(ctx context.Context, user, domain string) error {
	if _, err := s.panel.Invoke(ctx, hestia.EnableSSL{User: user, Domain: domain}, hestia.FormatDefault); err != nil {
		return fmt.Errorf("issue certificate for %s: %w", domain, err)
	}
	if _, err := s.panel.Invoke(ctx, hestia.ForceSSL{User: user, Domain: domain}, hestia.FormatDefault); err != nil {
		return fmt.Errorf("force https for %s: %w", domain, err)
	}
	return nil
}

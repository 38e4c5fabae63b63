package hestia

import "strings"

// Command is one remote panel operation. The set of implementations is
// closed: every supported command is a struct below carrying its own
// typed arguments, assembled into positional form only at dispatch.
type Command interface {
	name() string
	args() []string
}

// --- user lifecycle ---

type SuspendUser struct{ User string }

func (c SuspendUser) name() string   { return "v-suspend-user" }
func (c SuspendUser) args() []string { return []string{c.User} }

type UnsuspendUser struct{ User string }

func (c UnsuspendUser) name() string   { return "v-unsuspend-user" }
func (c UnsuspendUser) args() []string { return []string{c.User} }

// --- web domains ---

type SuspendWebDomain struct{ User, Domain string }

func (c SuspendWebDomain) name() string   { return "v-suspend-web-domain" }
func (c SuspendWebDomain) args() []string { return []string{c.User, c.Domain} }

type UnsuspendWebDomain struct{ User, Domain string }

func (c UnsuspendWebDomain) name() string   { return "v-unsuspend-web-domain" }
func (c UnsuspendWebDomain) args() []string { return []string{c.User, c.Domain} }

// AddWebDomain creates a web domain; aliases, when present, are passed
// comma-joined in the panel's alias slot.
type AddWebDomain struct {
	User    string
	Domain  string
	Aliases []string
}

func (c AddWebDomain) name() string { return "v-add-web-domain" }
func (c AddWebDomain) args() []string {
	a := []string{c.User, c.Domain}
	if len(c.Aliases) > 0 {
		a = append(a, strings.Join(c.Aliases, ","))
	}
	return a
}

type AddWebDomainAlias struct{ User, Domain, Alias string }

func (c AddWebDomainAlias) name() string   { return "v-add-web-domain-alias" }
func (c AddWebDomainAlias) args() []string { return []string{c.User, c.Domain, c.Alias} }

type ListWebDomains struct{ User string }

func (c ListWebDomains) name() string   { return "v-list-web-domains" }
func (c ListWebDomains) args() []string { return []string{c.User} }

// --- SSL ---

// EnableSSL issues a Let's Encrypt certificate for the domain.
// Repeating the command re-issues, which doubles as renewal.
type EnableSSL struct{ User, Domain string }

func (c EnableSSL) name() string   { return "v-add-letsencrypt-domain" }
func (c EnableSSL) args() []string { return []string{c.User, c.Domain} }

type ForceSSL struct{ User, Domain string }

func (c ForceSSL) name() string   { return "v-add-web-domain-ssl-force" }
func (c ForceSSL) args() []string { return []string{c.User, c.Domain} }

// --- databases ---

type AddDatabase struct{ User, Database, DBUser, Password string }

func (c AddDatabase) name() string { return "v-add-database" }
func (c AddDatabase) args() []string {
	return []string{c.User, c.Database, c.DBUser, c.Password}
}

type DeleteDatabase struct{ User, Database string }

func (c DeleteDatabase) name() string   { return "v-delete-database" }
func (c DeleteDatabase) args() []string { return []string{c.User, c.Database} }

type ListDatabases struct{ User string }

func (c ListDatabases) name() string   { return "v-list-databases" }
func (c ListDatabases) args() []string { return []string{c.User} }

// --- DNS ---

type AddDNSRecord struct{ User, Domain, Record, Type, Value string }

func (c AddDNSRecord) name() string { return "v-add-dns-record" }
func (c AddDNSRecord) args() []string {
	return []string{c.User, c.Domain, c.Record, c.Type, c.Value}
}

type DeleteDNSRecord struct {
	User   string
	Domain string
	ID     string
}

func (c DeleteDNSRecord) name() string   { return "v-delete-dns-record" }
func (c DeleteDNSRecord) args() []string { return []string{c.User, c.Domain, c.ID} }

type ListDNSRecords struct{ User, Domain string }

func (c ListDNSRecords) name() string   { return "v-list-dns-records" }
func (c ListDNSRecords) args() []string { return []string{c.User, c.Domain} }

// --- mail ---

type AddMailAccount struct{ User, Domain, Account, Password string }

func (c AddMailAccount) name() string { return "v-add-mail-account" }
func (c AddMailAccount) args() []string {
	return []string{c.User, c.Domain, c.Account, c.Password}
}

type DeleteMailAccount struct{ User, Domain, Account string }

func (c DeleteMailAccount) name() string   { return "v-delete-mail-account" }
func (c DeleteMailAccount) args() []string { return []string{c.User, c.Domain, c.Account} }

type ListMailAccounts struct{ User, Domain string }

func (c ListMailAccounts) name() string   { return "v-list-mail-accounts" }
func (c ListMailAccounts) args() []string { return []string{c.User, c.Domain} }

// --- document root ---

type ChangeDocroot struct {
	User         string
	Domain       string
	TargetDomain string
	TargetDir    string
}

func (c ChangeDocroot) name() string { return "v-change-web-domain-docroot" }
func (c ChangeDocroot) args() []string {
	a := []string{c.User, c.Domain, c.TargetDomain}
	if c.TargetDir != "" {
		a = append(a, c.TargetDir)
	}
	return a
}

type ResetDocroot struct{ User, Domain string }

func (c ResetDocroot) name() string   { return "v-change-web-domain-docroot" }
func (c ResetDocroot) args() []string { return []string{c.User, c.Domain, "default"} }

// --- backups ---

type BackupUser struct{ User string }

func (c BackupUser) name() string   { return "v-backup-user" }
func (c BackupUser) args() []string { return []string{c.User} }

type RestoreUser struct{ User, Backup string }

func (c RestoreUser) name() string   { return "v-restore-user" }
func (c RestoreUser) args() []string { return []string{c.User, c.Backup} }

type ListBackups struct{ User string }

func (c ListBackups) name() string   { return "v-list-user-backups" }
func (c ListBackups) args() []string { return []string{c.User} }

package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/hostfold/hostfold/internal/model"
	"github.com/hostfold/hostfold/internal/store"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup configuration. Passphrase encrypts snapshots
// before upload; without it (or S3 credentials) backups are disabled.
type Config struct {
	S3         S3Config
	DBPath     string
	Passphrase string
}

var ErrNotConfigured = fmt.Errorf("backups not configured")

// Service takes encrypted snapshots of the record store and ships them
// to S3-compatible storage.
type Service struct {
	cfg     Config
	db      *sql.DB
	backups *store.BackupStore
	client  s3Client
	logger  *slog.Logger
}

func NewService(cfg Config, db *sql.DB, bs *store.BackupStore, logger *slog.Logger) *Service {
	s := &Service{cfg: cfg, db: db, backups: bs, logger: logger}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		s.client = newS3Client(cfg.S3)
	}
	return s
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Configured reports whether snapshots can actually be taken.
func (s *Service) Configured() bool {
	return s.client != nil
}

// RunNow snapshots the database, encrypts it, uploads it, and records it.
func (s *Service) RunNow(ctx context.Context) (*model.Backup, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}

	dir, err := os.MkdirTemp("", "hostfold-backup-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	snapshot := filepath.Join(dir, "snapshot.db")
	// VACUUM INTO produces a consistent copy without locking writers out.
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
		return nil, fmt.Errorf("snapshot database: %w", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	encrypted := snapshot + ".enc"
	if err := EncryptFile(snapshot, encrypted, s.cfg.Passphrase, salt); err != nil {
		return nil, fmt.Errorf("encrypt snapshot: %w", err)
	}

	f, err := os.Open(encrypted)
	if err != nil {
		return nil, fmt.Errorf("open encrypted snapshot: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat encrypted snapshot: %w", err)
	}

	objectKey := fmt.Sprintf("backups/%s/%s.db.enc",
		time.Now().UTC().Format("2006-01-02"), uuid.NewString())

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.S3.Bucket),
		Key:           aws.String(objectKey),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	}); err != nil {
		return nil, fmt.Errorf("upload %s: %w", objectKey, err)
	}

	record, err := s.backups.Create(objectKey, info.Size())
	if err != nil {
		return nil, fmt.Errorf("record backup: %w", err)
	}

	s.logger.Info("backup uploaded", "key", objectKey, "bytes", info.Size())
	return record, nil
}

// Restore downloads and decrypts a snapshot to dstPath. The caller is
// responsible for swapping it in; a running server never overwrites its
// own live database.
func (s *Service) Restore(ctx context.Context, objectKey, dstPath string) error {
	if s.client == nil {
		return ErrNotConfigured
	}

	record, err := s.backups.GetByKey(objectKey)
	if err != nil {
		return fmt.Errorf("look up backup: %w", err)
	}
	if record == nil {
		return fmt.Errorf("unknown backup %s", objectKey)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.S3.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", objectKey, err)
	}
	defer out.Body.Close()

	dir, err := os.MkdirTemp("", "hostfold-restore-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	encrypted := filepath.Join(dir, "snapshot.db.enc")
	f, err := os.Create(encrypted)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, out.Body); err != nil {
		f.Close()
		return fmt.Errorf("write download: %w", err)
	}
	f.Close()

	if err := DecryptFile(encrypted, dstPath, s.cfg.Passphrase); err != nil {
		return fmt.Errorf("decrypt %s: %w", objectKey, err)
	}

	s.logger.Info("backup restored", "key", objectKey, "path", dstPath)
	return nil
}

// Prune deletes uploaded snapshots older than the retention window.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int, error) {
	if s.client == nil {
		return 0, ErrNotConfigured
	}

	records, err := s.backups.List()
	if err != nil {
		return 0, fmt.Errorf("list backups: %w", err)
	}

	cutoff := time.Now().UTC().Add(-retention)
	pruned := 0
	for _, r := range records {
		if !r.CreatedAt.Before(cutoff) {
			continue
		}
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.cfg.S3.Bucket),
			Key:    aws.String(r.ObjectKey),
		}); err != nil {
			s.logger.Warn("prune object", "key", r.ObjectKey, "error", err)
			continue
		}
		if err := s.backups.Delete(r.ID); err != nil {
			return pruned, fmt.Errorf("delete backup record: %w", err)
		}
		pruned++
	}
	return pruned, nil
}

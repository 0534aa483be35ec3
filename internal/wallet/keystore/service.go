package keystore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github/chapool/go-ethtx/internal/util"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

var ErrKeystoreExists = errors.New("keystore already exists")

type service struct {
	path   string
	params *ScryptParams
}

// NewService returns a Service backed by the file at path. A nil params uses
// DefaultScryptParams.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(path string, params *ScryptParams) (Service, error) {
	if path == "" {
		return nil, errors.New("keystore path is empty")
	}
	if params == nil {
		params = DefaultScryptParams()
	}

	return &service{path: path, params: params}, nil
}

func (s *service) Path() string {
	return s.path
}

func (s *service) Create(ctx context.Context, mnemonic string, password string, address string) (*KeystoreJSON, error) {
	log := util.LogFromContext(ctx)

	exists, err := s.Exists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check keystore existence")
	}
	if exists {
		return nil, errors.Wrap(ErrKeystoreExists, s.path)
	}

	ks, err := encryptMnemonic(mnemonic, password, s.params)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encrypt mnemonic")
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}
	ks.Address = address

	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal keystore JSON")
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Failed to write keystore")
		return nil, err
	}

	log.Info().Str("path", s.path).Str("id", ks.ID).Msg("Keystore created")
	return ks, nil
}

func (s *service) Load(_ context.Context) (*KeystoreJSON, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read keystore")
	}

	var ks KeystoreJSON
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal keystore JSON")
	}

	return &ks, nil
}

func (s *service) Decrypt(ctx context.Context, password string) (string, error) {
	log := util.LogFromContext(ctx)

	ks, err := s.Load(ctx)
	if err != nil {
		return "", err
	}

	mnemonic, err := decryptMnemonic(ks, password)
	if err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Failed to decrypt mnemonic")
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}

	return mnemonic, nil
}

func (s *service) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, errors.Wrap(err, "failed to stat keystore")
}

// writeFileAtomic writes through a temp file in the target directory so a
// crash never leaves a truncated keystore behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.Wrap(err, "failed to create keystore directory")
	}

	tmp, err := os.CreateTemp(dir, ".keystore-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write keystore")
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to chmod keystore")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close keystore")
	}

	return errors.Wrap(os.Rename(tmp.Name(), path), "failed to move keystore into place")
}

package transport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/valokuva/cms-admin-api/pkg/config"
)

// TransferItem is one file to copy to the site host. RemotePath is relative to
// the configured web root and uses forward slashes.
type TransferItem struct {
	LocalPath  string
	RemotePath string
}

// RemoveItem is one remote file to delete, relative to the web root.
type RemoveItem struct {
	RemotePath string
}

// Deployer copies published artifacts to the site host over SFTP. A single
// connection is shared and all operations are serialized behind a mutex, so a
// batch in flight is never interleaved with another caller's batch.
type Deployer struct {
	cfg config.DeployConfig
	log *zap.Logger

	mu     sync.Mutex
	sshCli *ssh.Client
	cli    *sftp.Client

	createdDirs map[string]struct{}
}

// NewDeployer validates the deploy configuration without dialing. The
// connection is established lazily on the first transfer.
func NewDeployer(cfg config.DeployConfig, log *zap.Logger) (*Deployer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("deploy host is not configured")
	}
	if cfg.PrivateKeyPath == "" {
		return nil, fmt.Errorf("deploy private key path is not configured")
	}
	return &Deployer{
		cfg:         cfg,
		log:         log,
		createdDirs: map[string]struct{}{},
	}, nil
}

func (d *Deployer) clientConfig() (*ssh.ClientConfig, error) {
	keyBytes, err := os.ReadFile(d.cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	knownHostsFile := filepath.Join(d.cfg.SSHHomeDir, "known_hosts")
	hostKeyCallback, err := knownhosts.New(knownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("load known hosts %s: %w", knownHostsFile, err)
	}

	timeout := d.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}

	return &ssh.ClientConfig{
		User:            d.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

// connect dials the site host if no live connection exists. Caller must hold
// the mutex.
func (d *Deployer) connect() error {
	if d.cli != nil {
		return nil
	}
	sshCfg, err := d.clientConfig()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", d.cfg.Host, d.cfg.Port)
	sshCli, err := ssh.Dial("tcp", addr, sshCfg)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	cli, err := sftp.NewClient(sshCli)
	if err != nil {
		_ = sshCli.Close()
		return fmt.Errorf("open sftp session: %w", err)
	}

	d.sshCli = sshCli
	d.cli = cli
	d.createdDirs = map[string]struct{}{}
	d.log.Info("sftp connection established", zap.String("host", d.cfg.Host), zap.Int("port", d.cfg.Port))
	return nil
}

// dropConnection tears down a broken session so the next batch redials.
// Caller must hold the mutex.
func (d *Deployer) dropConnection() {
	if d.cli != nil {
		_ = d.cli.Close()
		d.cli = nil
	}
	if d.sshCli != nil {
		_ = d.sshCli.Close()
		d.sshCli = nil
	}
}

// Close releases the connection. Safe to call when never connected.
func (d *Deployer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropConnection()
	return nil
}

// remoteExists reports whether the remote path exists. A stat failure other
// than not-exist is a transport error and is returned as such rather than
// being folded into "missing".
func (d *Deployer) remoteExists(remote string) (bool, error) {
	_, err := d.cli.Lstat(remote)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", remote, err)
}

// ensureRemoteDir creates every missing segment of the directory one at a
// time, remembering what it has created for the lifetime of the connection.
func (d *Deployer) ensureRemoteDir(dir string) error {
	dir = path.Clean(dir)
	if dir == "." || dir == "/" {
		return nil
	}
	if _, ok := d.createdDirs[dir]; ok {
		return nil
	}

	segments := strings.Split(strings.Trim(dir, "/"), "/")
	current := ""
	if strings.HasPrefix(dir, "/") {
		current = "/"
	}
	for _, seg := range segments {
		current = path.Join(current, seg)
		if _, ok := d.createdDirs[current]; ok {
			continue
		}
		exists, err := d.remoteExists(current)
		if err != nil {
			return err
		}
		if !exists {
			if err := d.cli.Mkdir(current); err != nil {
				return fmt.Errorf("mkdir %s: %w", current, err)
			}
			d.log.Debug("remote directory created", zap.String("dir", current))
		}
		d.createdDirs[current] = struct{}{}
	}
	return nil
}

// TransferFiles uploads the batch to the site host under the web root,
// creating every needed directory first. Files are replaced, never appended.
// On error the batch stops where it is; already uploaded files stay on the
// remote side, so callers must treat delivery as at-least-once.
func (d *Deployer) TransferFiles(ctx context.Context, items []TransferItem) error {
	if len(items) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.connect(); err != nil {
		return err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		remote := path.Join(d.cfg.WebRoot, path.Clean("/"+filepath.ToSlash(item.RemotePath)))
		if err := d.ensureRemoteDir(path.Dir(remote)); err != nil {
			d.dropConnection()
			return err
		}
		if err := d.uploadFile(item.LocalPath, remote); err != nil {
			d.dropConnection()
			return err
		}
		d.log.Debug("file transferred",
			zap.String("local", item.LocalPath),
			zap.String("remote", remote))
	}
	return nil
}

func (d *Deployer) uploadFile(local, remote string) error {
	src, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("open local %s: %w", local, err)
	}
	defer src.Close() //nolint:errcheck

	dst, err := d.cli.Create(remote)
	if err != nil {
		return fmt.Errorf("create remote %s: %w", remote, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("write remote %s: %w", remote, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close remote %s: %w", remote, err)
	}
	return nil
}

// RemoveFiles deletes remote files under the web root. Missing files are
// skipped silently; other stat or remove failures abort the batch.
func (d *Deployer) RemoveFiles(ctx context.Context, items []RemoveItem) error {
	if len(items) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.connect(); err != nil {
		return err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		remote := path.Join(d.cfg.WebRoot, path.Clean("/"+filepath.ToSlash(item.RemotePath)))
		exists, err := d.remoteExists(remote)
		if err != nil {
			d.dropConnection()
			return err
		}
		if !exists {
			continue
		}
		if err := d.cli.Remove(remote); err != nil {
			d.dropConnection()
			return fmt.Errorf("remove %s: %w", remote, err)
		}
		d.log.Debug("remote file removed", zap.String("remote", remote))
	}
	return nil
}

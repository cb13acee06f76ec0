package filesystem

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Endpoint identifies the archive host and how to authenticate to it.
type Endpoint struct {
	Host           string
	Port           int
	User           string
	PrivateKeyPath string
	KnownHostsPath string
}

// Address returns host:port.
func (e Endpoint) Address() string {
	port := e.Port
	if port == 0 {
		port = defaultSSHPort
	}

	return net.JoinHostPort(e.Host, strconv.Itoa(port))
}

// SFTPConnection holds an SSH connection and the SFTP session opened on it.
// Shell commands run in their own sessions over the same connection.
type SFTPConnection struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	endpoint   Endpoint
}

// Connect dials the archive host and opens an SFTP session. Authentication
// tries the configured private key, then the SSH agent, then default keys.
func Connect(endpoint Endpoint) (*SFTPConnection, error) {
	authMethods := getSSHAuthMethods(endpoint.PrivateKeyPath)
	if len(authMethods) == 0 {
		return nil, fmt.Errorf("no SSH authentication methods available (tried %q, SSH agent and default keys)",
			endpoint.PrivateKeyPath)
	}

	hostKeyCallback, err := hostKeyCallback(endpoint.KnownHostsPath)
	if err != nil {
		return nil, err
	}

	config := &ssh.ClientConfig{
		User:            endpoint.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
	}

	sshClient, err := ssh.Dial("tcp", endpoint.Address(), config)
	if err != nil {
		return nil, fmt.Errorf("SSH connection failed: %w", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("SFTP session creation failed: %w", err)
	}

	return &SFTPConnection{
		sshClient:  sshClient,
		sftpClient: sftpClient,
		endpoint:   endpoint,
	}, nil
}

// Close closes the SFTP session and SSH connection.
func (c *SFTPConnection) Close() error {
	var firstErr error

	if c.sftpClient != nil {
		if err := c.sftpClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.sshClient != nil {
		if err := c.sshClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Client returns the SFTP client.
func (c *SFTPConnection) Client() *sftp.Client {
	return c.sftpClient
}

// SSHClient returns the SSH client for opening command sessions.
func (c *SFTPConnection) SSHClient() *ssh.Client {
	return c.sshClient
}

// Endpoint returns the endpoint this connection was dialed with.
func (c *SFTPConnection) Endpoint() Endpoint {
	return c.endpoint
}

const defaultSSHPort = 22

func hostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if knownHostsPath == "" {
		// rsync runs with StrictHostKeyChecking=no, so the control connection matches it.
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // no known_hosts configured
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts %s: %w", knownHostsPath, err)
	}

	return callback, nil
}

func getSSHAuthMethods(privateKeyPath string) []ssh.AuthMethod {
	var authMethods []ssh.AuthMethod

	if privateKeyPath != "" {
		if signer, err := loadSigner(privateKeyPath); err == nil {
			authMethods = append(authMethods, ssh.PublicKeys(signer))
		}
	}

	if agentAuth := trySSHAgent(); agentAuth != nil {
		authMethods = append(authMethods, agentAuth)
	}

	return append(authMethods, tryDefaultSSHKeys()...)
}

func trySSHAgent() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil
	}

	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers)
}

func tryDefaultSSHKeys() []ssh.AuthMethod {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	sshDir := filepath.Join(homeDir, ".ssh")

	var authMethods []ssh.AuthMethod

	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		signer, err := loadSigner(filepath.Join(sshDir, name))
		if err != nil {
			// missing or passphrase-protected
			continue
		}

		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	return authMethods
}

func loadSigner(keyPath string) (ssh.Signer, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", keyPath, err)
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key %s: %w", keyPath, err)
	}

	return signer, nil
}

package printer

import (
	"context"
	"net"
	"path"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
)

const (
	DefaultRawPort  = 9100
	DefaultSFTPPort = 22
)

// Transport delivers a rendered job to a printer
type Transport interface {
	Send(ctx context.Context, p domain.Printer, job *Job) error
}

func address(host string, port, def int) string {
	if port <= 0 {
		port = def
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// TCPTransport streams the payload to the printer's raw port
type TCPTransport struct {
	Timeout time.Duration
}

func (t TCPTransport) Send(ctx context.Context, p domain.Printer, job *Job) error {
	d := net.Dialer{Timeout: t.Timeout}
	conn, err := d.DialContext(ctx, "tcp", address(p.Host, p.Port, DefaultRawPort))
	if err != nil {
		return errors.Wrap(err, "dial printer")
	}
	defer conn.Close()
	if t.Timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(t.Timeout))
	}
	if _, err := conn.Write(job.Payload); err != nil {
		return errors.Wrap(err, "write printer")
	}
	return nil
}

// SFTPTransport drops the payload into a print server hot folder
type SFTPTransport struct {
	Timeout time.Duration
}

func (t SFTPTransport) Send(ctx context.Context, p domain.Printer, job *Job) error {
	cfg := &ssh.ClientConfig{
		User: p.Username,
		Auth: []ssh.AuthMethod{ssh.Password(p.Password)},
		// hot folder hosts sit on the shop LAN, keys are not pinned
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         t.Timeout,
	}
	d := net.Dialer{Timeout: t.Timeout}
	addr := address(p.Host, p.Port, DefaultSFTPPort)
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrap(err, "dial sftp")
	}
	c, chans, reqs, err := ssh.NewClientConn(raw, addr, cfg)
	if err != nil {
		_ = raw.Close()
		return errors.Wrap(err, "ssh handshake")
	}
	conn := ssh.NewClient(c, chans, reqs)
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return errors.Wrap(err, "open sftp session")
	}
	defer client.Close()

	dir := p.RemoteDir
	if dir == "" {
		dir = "."
	}
	if err := client.MkdirAll(dir); err != nil {
		return errors.Wrap(err, "create hot folder")
	}
	f, err := client.Create(path.Join(dir, job.Filename))
	if err != nil {
		return errors.Wrap(err, "create remote file")
	}
	if _, err := f.Write(job.Payload); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "write remote file")
	}
	return errors.Wrap(f.Close(), "close remote file")
}

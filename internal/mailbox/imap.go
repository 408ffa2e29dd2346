package mailbox

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/textproto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Pharaon3/bark-automation/internal/domain"
)

// Config addresses one IMAP mailbox.
type Config struct {
	Addr     string // host:port
	Username string
	Password string
	Mailbox  string // default INBOX
	TLS      *tls.Config
	Timeout  time.Duration // dial timeout
}

// IMAP lists and fetches messages from one mailbox. It connects lazily on
// the first List and keeps the connection until Close, so one value serves
// one run. Message ids are Message-Id headers, or "uid:<validity>:<uid>"
// for messages without one. Messages are fetched with BODY.PEEK[] and are
// never marked \Seen.
type IMAP struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	c        *imapclient.Client
	stop     func() bool
	validity uint32
	uids     map[string]imap.UID
}

func NewIMAP(cfg Config) *IMAP {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &IMAP{cfg: cfg, now: time.Now, uids: make(map[string]imap.UID)}
}

// DialAndLogin connects over TLS and logs in. The connection is closed when
// ctx is done.
func DialAndLogin(ctx context.Context, cfg Config) (*imapclient.Client, func() bool, error) {
	if cfg.Addr == "" {
		return nil, nil, eris.New("mailbox: imap addr is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, nil, eris.New("mailbox: imap username/password is required")
	}
	tlsCfg := cfg.TLS
	if tlsCfg == nil {
		host, _, _ := net.SplitHostPort(cfg.Addr)
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}

	d := &tls.Dialer{NetDialer: &net.Dialer{Timeout: cfg.Timeout}, Config: tlsCfg}
	conn, err := d.DialContext(ctx, "tcp", cfg.Addr)
	if err != nil {
		return nil, nil, eris.Wrap(err, "mailbox: imap dial tls")
	}
	c := imapclient.New(conn, nil)

	// Best-effort close on context cancel.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })

	if err := c.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, nil, eris.Wrap(err, "mailbox: imap login")
	}
	return c, stop, nil
}

func (m *IMAP) connect(ctx context.Context) error {
	if m.c != nil {
		return nil
	}
	c, stop, err := DialAndLogin(ctx, m.cfg)
	if err != nil {
		return err
	}
	sel, err := c.Select(m.cfg.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		stop()
		_ = c.Close()
		return eris.Wrapf(err, "mailbox: select %s", m.cfg.Mailbox)
	}
	m.c, m.stop, m.validity = c, stop, sel.UIDValidity
	m.uids = make(map[string]imap.UID)
	return nil
}

// List returns up to max message ids matching query, newest first.
func (m *IMAP) List(ctx context.Context, query string, max int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	criteria, err := ParseQuery(query, m.now())
	if err != nil {
		return nil, err
	}
	if err := m.connect(ctx); err != nil {
		return nil, err
	}

	data, err := m.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, eris.Wrap(err, "mailbox: imap uid search")
	}
	uids := data.AllUIDs()
	if len(uids) == 0 {
		return []string{}, nil
	}

	// Process newest first
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if max > 0 && len(uids) > max {
		uids = uids[:max]
	}

	headerIDs, err := m.fetchMessageIDs(ctx, uids)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(uids))
	for _, uid := range uids {
		id := headerIDs[uid]
		if id == "" {
			id = fmt.Sprintf("uid:%d:%d", m.validity, uid)
		}
		m.uids[id] = uid
		ids = append(ids, id)
	}
	zap.L().Debug("imap list",
		zap.String("component", "mailbox"),
		zap.String("query", query),
		zap.Int("matched", len(data.AllUIDs())),
		zap.Int("returned", len(ids)),
	)
	return ids, nil
}

func (m *IMAP) fetchMessageIDs(ctx context.Context, uids []imap.UID) (map[imap.UID]string, error) {
	section := &imap.FetchItemBodySection{
		Specifier:    imap.PartSpecifierHeader,
		HeaderFields: []string{"Message-Id"},
		Peek:         true,
	}
	cmd := m.c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	})
	defer func() { _ = cmd.Close() }()

	out := make(map[imap.UID]string, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg := cmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			return nil, eris.Wrap(err, "mailbox: imap fetch collect")
		}
		out[buf.UID] = headerMessageID(buf.FindBodySection(section))
	}
	if err := cmd.Close(); err != nil {
		return nil, eris.Wrap(err, "mailbox: imap fetch close")
	}
	return out, nil
}

// Get fetches and parses the message with the given id.
func (m *IMAP) Get(ctx context.Context, id string) (domain.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.connect(ctx); err != nil {
		return domain.Payload{}, err
	}
	uid, ok := m.uids[id]
	if !ok {
		uid, ok = m.parseUIDRef(id)
	}
	if !ok {
		return domain.Payload{}, eris.Errorf("mailbox: unknown message id %q", id)
	}

	raw, err := m.fetchRaw(ctx, uid)
	if err != nil {
		return domain.Payload{}, err
	}
	return ParsePayload(raw)
}

func (m *IMAP) fetchRaw(ctx context.Context, uid imap.UID) ([]byte, error) {
	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	cmd := m.c.Fetch(imap.UIDSetNum(uid), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = cmd.Close() }()

	var raw []byte
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msg := cmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			return nil, eris.Wrap(err, "mailbox: imap fetch collect")
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			raw = append([]byte(nil), b...)
		}
	}
	if err := cmd.Close(); err != nil {
		return nil, eris.Wrap(err, "mailbox: imap fetch close")
	}
	if raw == nil {
		return nil, eris.Errorf("mailbox: message uid %d not found", uid)
	}
	return raw, nil
}

// parseUIDRef resolves "uid:<validity>:<uid>" ids for the current mailbox.
func (m *IMAP) parseUIDRef(id string) (imap.UID, bool) {
	rest, ok := strings.CutPrefix(id, "uid:")
	if !ok {
		return 0, false
	}
	v, u, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, false
	}
	validity, err := strconv.ParseUint(v, 10, 32)
	if err != nil || uint32(validity) != m.validity {
		return 0, false
	}
	n, err := strconv.ParseUint(u, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return imap.UID(n), true
}

// Close logs out then closes the connection. It is safe to call when no
// connection was made.
func (m *IMAP) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.c == nil {
		return nil
	}
	c := m.c
	m.c = nil
	if m.stop != nil {
		m.stop()
	}
	if err := c.Logout().Wait(); err != nil {
		zap.L().Debug("imap logout", zap.String("component", "mailbox"), zap.Error(err))
	}
	return c.Close()
}

func headerMessageID(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	h, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(b)))
	if err != nil {
		return ""
	}
	return normalizeMessageID(h.Get("Message-Id"))
}

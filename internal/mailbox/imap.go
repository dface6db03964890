package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"maildesk/internal/models"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rs/zerolog"
)

// Gateway reads unread messages from an IMAP mailbox. Messages are not
// marked seen on fetch; the pipeline marks them once the case is durably
// persisted, so a crash mid-pipeline re-surfaces the message on the next
// poll and the idempotent case store absorbs the duplicate.
type Gateway struct {
	host     string
	port     int
	username string
	password string
	mailbox  string
	logger   zerolog.Logger

	mu     sync.Mutex
	client *imapclient.Client
}

// NewGateway creates an IMAP gateway. The connection is dialed lazily on
// first use and redialed after errors.
func NewGateway(host string, port int, username, password, mailbox string, logger zerolog.Logger) *Gateway {
	return &Gateway{
		host:     host,
		port:     port,
		username: username,
		password: password,
		mailbox:  mailbox,
		logger:   logger.With().Str("component", "mailbox").Logger(),
	}
}

// FetchUnread returns all messages currently flagged unseen, oldest first
func (g *Gateway) FetchUnread(ctx context.Context) ([]models.InboundMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	client, err := g.ensureClient()
	if err != nil {
		return nil, err
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}, nil).Wait()
	if err != nil {
		g.dropClient()
		return nil, fmt.Errorf("imap search: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	var uidSet imap.UIDSet
	for _, uid := range uids {
		uidSet.AddNum(uid)
	}

	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{{}},
	}
	fetchCmd := client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	var messages []models.InboundMessage
	for {
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}

		buf, err := msgData.Collect()
		if err != nil {
			g.logger.Warn().Err(err).Uint32("seq", msgData.SeqNum).
				Msg("unreadable message skipped, left unseen")
			continue
		}

		msg, ok := g.message(buf)
		if !ok {
			continue
		}
		messages = append(messages, msg)
	}

	g.logger.Info().Int("unread", len(messages)).Msg("mailbox fetch completed")
	return messages, nil
}

// MarkSeen flags one message as consumed
func (g *Gateway) MarkSeen(ctx context.Context, uid uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	client, err := g.ensureClient()
	if err != nil {
		return err
	}

	var uidSet imap.UIDSet
	uidSet.AddNum(imap.UID(uid))

	storeCmd := client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		g.dropClient()
		return fmt.Errorf("imap store \\Seen: %w", err)
	}
	return nil
}

// Close logs out and drops the connection
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil {
		return nil
	}
	err := g.client.Logout().Wait()
	g.client.Close()
	g.client = nil
	return err
}

// ensureClient dials, logs in and selects the mailbox if needed.
// Callers must hold g.mu.
func (g *Gateway) ensureClient() (*imapclient.Client, error) {
	if g.client != nil {
		return g.client, nil
	}

	addr := fmt.Sprintf("%s:%d", g.host, g.port)
	client, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{ServerName: g.host},
	})
	if err != nil {
		return nil, fmt.Errorf("dial imap: %w", err)
	}

	if err := client.Login(g.username, g.password).Wait(); err != nil {
		client.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}

	if _, err := client.Select(g.mailbox, nil).Wait(); err != nil {
		client.Close()
		return nil, fmt.Errorf("select %s: %w", g.mailbox, err)
	}

	g.logger.Info().Str("host", g.host).Str("mailbox", g.mailbox).Msg("imap connected")
	g.client = client
	return client, nil
}

// dropClient discards a connection after a protocol error so the next call
// redials. Callers must hold g.mu.
func (g *Gateway) dropClient() {
	if g.client != nil {
		g.client.Close()
		g.client = nil
	}
}

// message converts a fetched buffer, skipping messages without an envelope.
// Skipped messages stay unseen and show up again on the next poll.
func (g *Gateway) message(buf *imapclient.FetchMessageBuffer) (models.InboundMessage, bool) {
	if buf.Envelope == nil {
		g.logger.Warn().Uint32("uid", uint32(buf.UID)).
			Msg("message without envelope skipped, left unseen")
		return models.InboundMessage{}, false
	}
	return bufToMessage(buf), true
}

func bufToMessage(buf *imapclient.FetchMessageBuffer) models.InboundMessage {
	env := buf.Envelope

	from := ""
	if len(env.From) > 0 {
		from = env.From[0].Addr()
	}

	var body string
	if len(buf.BodySection) > 0 {
		body = extractPlainBody(buf.BodySection[0].Bytes)
	}

	// The Message-ID header is the stable identity; fall back to the mailbox
	// UID for the rare message without one.
	externalID := env.MessageID
	if externalID == "" {
		externalID = fmt.Sprintf("uid-%d", buf.UID)
	}

	return models.InboundMessage{
		ExternalID: externalID,
		UID:        uint32(buf.UID),
		From:       from,
		Subject:    env.Subject,
		Body:       body,
		ThreadRef:  env.MessageID,
		ReceivedAt: env.Date,
	}
}

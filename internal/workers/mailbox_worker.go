package workers

import (
	"context"
	"fmt"
	"time"

	"parentpal_backend/internal/config"
	"parentpal_backend/internal/logger"
	"parentpal_backend/internal/mailbox"
	"parentpal_backend/internal/services"
	"parentpal_backend/internal/services/dto"
	"parentpal_backend/pkg/apperrors"
)

// MailboxWorker polls the shared IMAP inbox for forwarded school mail and
// feeds everything unseen into the ingestion pipeline.
type MailboxWorker struct {
	client    mailbox.Client
	ingestion services.IngestionService
	cfg       *config.Config
}

func NewMailboxWorker(client mailbox.Client, ingestion services.IngestionService, cfg *config.Config) *MailboxWorker {
	return &MailboxWorker{
		client:    client,
		ingestion: ingestion,
		cfg:       cfg,
	}
}

// Start runs the polling loop until ctx is cancelled.
func (w *MailboxWorker) Start(ctx context.Context) {
	go w.poll(ctx)
}

func (w *MailboxWorker) poll(ctx context.Context) {
	interval := time.Duration(w.cfg.Ingest.PollIntervalSecs) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("mailbox worker stopped")
			if err := w.client.Close(); err != nil {
				logger.WorkerLog("mailbox", "close", err)
			}
			return
		case <-ticker.C:
			if err := w.Tick(ctx); err != nil {
				logger.WorkerLog("mailbox", "poll", err)
			}
		}
	}
}

// Tick fetches and ingests one batch of unseen messages. Any listing failure
// is treated as a lost session: the worker reconnects and retries the listing
// exactly once, so a failed initial connect or a dropped connection heals on
// the next poll instead of failing every tick.
func (w *MailboxWorker) Tick(ctx context.Context) error {
	uids, err := w.listUnseen()
	if err != nil {
		if apperrors.IsCredentialExpired(err) {
			logger.Warn("mailbox session expired, reconnecting")
		} else {
			logger.Warn("mailbox listing failed, reconnecting", "error", err)
		}
		if err = w.connect(); err != nil {
			return err
		}
		uids, err = w.listUnseen()
	}
	if err != nil {
		return err
	}

	if len(uids) == 0 {
		return nil
	}

	if len(uids) > w.cfg.Ingest.BatchSize {
		uids = uids[:w.cfg.Ingest.BatchSize]
	}

	msgs := make([]dto.IncomingMessage, 0, len(uids))
	fetched := make([]uint32, 0, len(uids))

	for _, uid := range uids {
		raw, err := w.client.FetchMessage(uid)
		if err != nil {
			logger.WorkerLog("mailbox", fmt.Sprintf("fetch uid %d", uid), err)
			continue
		}

		parsed, err := mailbox.ParseMessage(raw)
		if err != nil {
			logger.WorkerLog("mailbox", fmt.Sprintf("parse uid %d", uid), err)
			continue
		}

		msgs = append(msgs, *parsed)
		fetched = append(fetched, uid)
	}

	if len(msgs) == 0 {
		return nil
	}

	stats := w.ingestion.ProcessBatch(ctx, msgs)
	logger.Info("mailbox batch ingested",
		"processed", stats.Processed,
		"duplicates", stats.Duplicates,
		"errors", stats.Errors,
	)

	// Seen flags are set regardless of per-message outcome. Failed messages
	// land in the log, and re-ingesting them is a manual resync, not an
	// endless re-poll of a poison message.
	for _, uid := range fetched {
		if err := w.client.MarkSeen(uid); err != nil {
			logger.WorkerLog("mailbox", fmt.Sprintf("mark seen uid %d", uid), err)
		}
	}

	return nil
}

// Connect establishes the initial IMAP session.
func (w *MailboxWorker) Connect() error {
	return w.connect()
}

func (w *MailboxWorker) connect() error {
	mb := w.cfg.Mailbox

	if err := w.client.Connect(mb.Server); err != nil {
		return err
	}
	if err := w.client.Login(mb.Username, mb.Password); err != nil {
		return apperrors.ErrCredentialExpired(err, "mailbox")
	}
	return w.client.SelectMailbox(mb.Folder)
}

func (w *MailboxWorker) listUnseen() ([]uint32, error) {
	lookback := time.Duration(w.cfg.Mailbox.LookbackMins) * time.Minute
	return w.client.ListUnseenUIDs(lookback)
}

package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tandem/contexts/marketplace/transaction-service/domain/entities"
	domainerrors "tandem/contexts/marketplace/transaction-service/domain/errors"
	"tandem/contexts/marketplace/transaction-service/ports"
	"tandem/internal/shared/events"
	"tandem/internal/shared/lifecycle"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

var activeExcludedStatuses = []string{
	string(lifecycle.StatusNotRegistered),
	string(lifecycle.StatusRegistrationRejected),
	string(lifecycle.StatusTerminated),
}

func (r *Repository) CreateTransaction(ctx context.Context, transaction entities.Transaction) error {
	row, err := transactionModelFromEntity(transaction)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateEngagement
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, transaction entities.Transaction) error {
	row, err := transactionModelFromEntity(transaction)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&transactionModel{}).
		Where("transaction_id = ?", strings.TrimSpace(transaction.TransactionID)).
		Updates(transactionUpdates(row))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTransactionNotFound
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, transactionID string) (entities.Transaction, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", strings.TrimSpace(transactionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Transaction{}, domainerrors.ErrTransactionNotFound
		}
		return entities.Transaction{}, err
	}
	return row.toEntity()
}

func (r *Repository) FindByCampaignAndCreator(ctx context.Context, campaignID string, creatorID string) (entities.Transaction, bool, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Where("creator_id = ?", strings.TrimSpace(creatorID)).
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Transaction{}, false, nil
		}
		return entities.Transaction{}, false, err
	}
	item, err := row.toEntity()
	if err != nil {
		return entities.Transaction{}, false, err
	}
	return item, true, nil
}

func (r *Repository) ListTransactions(ctx context.Context, filter ports.TransactionFilter) ([]entities.Transaction, error) {
	tx := r.db.WithContext(ctx).Model(&transactionModel{})
	if strings.TrimSpace(filter.CampaignID) != "" {
		tx = tx.Where("campaign_id = ?", strings.TrimSpace(filter.CampaignID))
	}
	if strings.TrimSpace(filter.CreatorID) != "" {
		tx = tx.Where("creator_id = ?", strings.TrimSpace(filter.CreatorID))
	}
	if strings.TrimSpace(filter.BusinessID) != "" {
		tx = tx.Where("business_id = ?", strings.TrimSpace(filter.BusinessID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []transactionModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Transaction, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) CountActiveByCampaign(ctx context.Context, campaignID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&transactionModel{}).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Where("status NOT IN ?", activeExcludedStatuses).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) ListExpiredOffers(ctx context.Context, threshold time.Time, limit int) ([]entities.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []transactionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(lifecycle.StatusOffering)).
		Where("offer_expires_at < ?", threshold.UTC()).
		Order("offer_expires_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Transaction, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) GetCampaignSnapshot(ctx context.Context, campaignID string) (ports.CampaignSnapshot, error) {
	var row campaignProjectionModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.CampaignSnapshot{}, domainerrors.ErrCampaignNotFound
		}
		return ports.CampaignSnapshot{}, err
	}
	return row.toSnapshot()
}

func (r *Repository) PutCampaignSnapshot(ctx context.Context, snapshot ports.CampaignSnapshot) error {
	row, err := campaignProjectionFromSnapshot(snapshot)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "campaign_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}

	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, err
		}
		return ports.IdempotencyRecord{}, false, nil
	}

	return ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		RequestHash:     record.RequestHash,
		ResponsePayload: append([]byte(nil), record.ResponsePayload...),
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).
		Error; err != nil {
		return err
	}
	if existing.RequestHash != row.RequestHash || !bytes.Equal(existing.ResponsePayload, row.ResponsePayload) {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAtUTC.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).
		Error; err != nil {
		return err
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidTransactionInput
	}
	return nil
}

type submissionRow struct {
	SubmissionID  string     `json:"submission_id"`
	Step          string     `json:"step"`
	Content       string     `json:"content"`
	Status        string     `json:"status"`
	RejectionType string     `json:"rejection_type,omitempty"`
	ReviewNote    string     `json:"review_note,omitempty"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
}

type transactionModel struct {
	TransactionID      string     `gorm:"column:transaction_id;primaryKey"`
	CampaignID         string     `gorm:"column:campaign_id"`
	BusinessID         string     `gorm:"column:business_id"`
	CreatorID          string     `gorm:"column:creator_id"`
	Status             string     `gorm:"column:status"`
	RemainingRevisions int        `gorm:"column:remaining_revisions"`
	Submissions        []byte     `gorm:"column:submissions"`
	PayoutBusiness     bool       `gorm:"column:payout_business_approved"`
	PayoutBusinessOut  bool       `gorm:"column:payout_business_withdrawn"`
	PayoutCreator      bool       `gorm:"column:payout_creator_approved"`
	PayoutCreatorOut   bool       `gorm:"column:payout_creator_withdrawn"`
	OfferExpiresAt     *time.Time `gorm:"column:offer_expires_at"`
	TerminationReason  string     `gorm:"column:termination_reason"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
	TerminatedAt       *time.Time `gorm:"column:terminated_at"`
}

func (transactionModel) TableName() string {
	return "transactions"
}

func transactionModelFromEntity(item entities.Transaction) (transactionModel, error) {
	rows := make([]submissionRow, 0, len(item.Submissions))
	for _, sub := range item.Submissions {
		rows = append(rows, submissionRow{
			SubmissionID:  sub.SubmissionID,
			Step:          string(sub.Step),
			Content:       sub.Content,
			Status:        string(sub.Status),
			RejectionType: string(sub.RejectionType),
			ReviewNote:    sub.ReviewNote,
			SubmittedAt:   sub.SubmittedAt.UTC(),
			ReviewedAt:    normalizeOptionalTime(sub.ReviewedAt),
		})
	}
	submissions, err := json.Marshal(rows)
	if err != nil {
		return transactionModel{}, err
	}
	return transactionModel{
		TransactionID:      strings.TrimSpace(item.TransactionID),
		CampaignID:         strings.TrimSpace(item.CampaignID),
		BusinessID:         strings.TrimSpace(item.BusinessID),
		CreatorID:          strings.TrimSpace(item.CreatorID),
		Status:             string(item.Status),
		RemainingRevisions: item.RemainingRevisions,
		Submissions:        submissions,
		PayoutBusiness:     item.Payouts.BusinessPeople.Approved,
		PayoutBusinessOut:  item.Payouts.BusinessPeople.Withdrawn,
		PayoutCreator:      item.Payouts.ContentCreator.Approved,
		PayoutCreatorOut:   item.Payouts.ContentCreator.Withdrawn,
		OfferExpiresAt:     normalizeOptionalTime(item.OfferExpiresAt),
		TerminationReason:  item.TerminationReason,
		CreatedAt:          item.CreatedAt.UTC(),
		UpdatedAt:          item.UpdatedAt.UTC(),
		CompletedAt:        normalizeOptionalTime(item.CompletedAt),
		TerminatedAt:       normalizeOptionalTime(item.TerminatedAt),
	}, nil
}

func transactionUpdates(row transactionModel) map[string]any {
	return map[string]any{
		"status":                    row.Status,
		"remaining_revisions":       row.RemainingRevisions,
		"submissions":               row.Submissions,
		"payout_business_approved":  row.PayoutBusiness,
		"payout_business_withdrawn": row.PayoutBusinessOut,
		"payout_creator_approved":   row.PayoutCreator,
		"payout_creator_withdrawn":  row.PayoutCreatorOut,
		"offer_expires_at":          row.OfferExpiresAt,
		"termination_reason":        row.TerminationReason,
		"updated_at":                row.UpdatedAt,
		"completed_at":              row.CompletedAt,
		"terminated_at":             row.TerminatedAt,
	}
}

func (m transactionModel) toEntity() (entities.Transaction, error) {
	status, err := lifecycle.ParseStatus(m.Status)
	if err != nil {
		return entities.Transaction{}, err
	}
	var rows []submissionRow
	if len(m.Submissions) > 0 {
		if err := json.Unmarshal(m.Submissions, &rows); err != nil {
			return entities.Transaction{}, err
		}
	}
	submissions := make([]entities.PhaseSubmission, 0, len(rows))
	for _, sub := range rows {
		submissions = append(submissions, entities.PhaseSubmission{
			SubmissionID:  sub.SubmissionID,
			Step:          lifecycle.Step(sub.Step),
			Content:       sub.Content,
			Status:        entities.SubmissionStatus(sub.Status),
			RejectionType: lifecycle.RejectionType(sub.RejectionType),
			ReviewNote:    sub.ReviewNote,
			SubmittedAt:   sub.SubmittedAt.UTC(),
			ReviewedAt:    normalizeOptionalTime(sub.ReviewedAt),
		})
	}
	return entities.Transaction{
		TransactionID:      m.TransactionID,
		CampaignID:         m.CampaignID,
		BusinessID:         m.BusinessID,
		CreatorID:          m.CreatorID,
		Status:             status,
		RemainingRevisions: m.RemainingRevisions,
		Submissions:        submissions,
		Payouts: lifecycle.Payouts{
			BusinessPeople: lifecycle.PayoutState{Approved: m.PayoutBusiness, Withdrawn: m.PayoutBusinessOut},
			ContentCreator: lifecycle.PayoutState{Approved: m.PayoutCreator, Withdrawn: m.PayoutCreatorOut},
		},
		OfferExpiresAt:    normalizeOptionalTime(m.OfferExpiresAt),
		TerminationReason: m.TerminationReason,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
		CompletedAt:       normalizeOptionalTime(m.CompletedAt),
		TerminatedAt:      normalizeOptionalTime(m.TerminatedAt),
	}, nil
}

type campaignProjectionModel struct {
	CampaignID       string  `gorm:"column:campaign_id;primaryKey"`
	BusinessID       string  `gorm:"column:business_id"`
	Status           string  `gorm:"column:status"`
	Slots            int     `gorm:"column:slots"`
	RewardAmount     float64 `gorm:"column:reward_amount"`
	HasBrainstorming bool    `gorm:"column:has_brainstorming"`
	Timeline         []byte  `gorm:"column:timeline"`
}

func (campaignProjectionModel) TableName() string {
	return "transaction_campaign_projection"
}

type projectionWindowRow struct {
	Step    string    `json:"step"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

func campaignProjectionFromSnapshot(snapshot ports.CampaignSnapshot) (campaignProjectionModel, error) {
	windows := make([]projectionWindowRow, 0, len(snapshot.Timeline))
	for _, window := range snapshot.Timeline {
		windows = append(windows, projectionWindowRow{
			Step:    string(window.Step),
			StartAt: window.Start.UTC(),
			EndAt:   window.End.UTC(),
		})
	}
	timeline, err := json.Marshal(windows)
	if err != nil {
		return campaignProjectionModel{}, err
	}
	return campaignProjectionModel{
		CampaignID:       strings.TrimSpace(snapshot.CampaignID),
		BusinessID:       strings.TrimSpace(snapshot.BusinessID),
		Status:           snapshot.Status,
		Slots:            snapshot.Slots,
		RewardAmount:     snapshot.RewardAmount,
		HasBrainstorming: snapshot.HasBrainstorming,
		Timeline:         timeline,
	}, nil
}

func (m campaignProjectionModel) toSnapshot() (ports.CampaignSnapshot, error) {
	var windows []projectionWindowRow
	if len(m.Timeline) > 0 {
		if err := json.Unmarshal(m.Timeline, &windows); err != nil {
			return ports.CampaignSnapshot{}, err
		}
	}
	timeline := make([]lifecycle.Window, 0, len(windows))
	for _, window := range windows {
		timeline = append(timeline, lifecycle.Window{
			Step:  lifecycle.Step(window.Step),
			Start: window.StartAt.UTC(),
			End:   window.EndAt.UTC(),
		})
	}
	return ports.CampaignSnapshot{
		CampaignID:       m.CampaignID,
		BusinessID:       m.BusinessID,
		Status:           m.Status,
		Slots:            m.Slots,
		RewardAmount:     m.RewardAmount,
		HasBrainstorming: m.HasBrainstorming,
		Timeline:         timeline,
	}, nil
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "transaction_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "transaction_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

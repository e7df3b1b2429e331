package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tandem/contexts/marketplace/campaign-service/domain/entities"
	domainerrors "tandem/contexts/marketplace/campaign-service/domain/errors"
	"tandem/contexts/marketplace/campaign-service/ports"
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

func (r *Repository) CreateCampaign(ctx context.Context, campaign entities.Campaign) error {
	row, err := campaignModelFromEntity(campaign)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidCampaignInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateCampaign(ctx context.Context, campaign entities.Campaign) error {
	row, err := campaignModelFromEntity(campaign)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("campaign_id = ?", strings.TrimSpace(campaign.CampaignID)).
		Updates(campaignUpdates(row))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCampaignNotFound
	}
	return nil
}

func (r *Repository) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	var row campaignModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Campaign{}, domainerrors.ErrCampaignNotFound
		}
		return entities.Campaign{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListCampaigns(ctx context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	tx := r.db.WithContext(ctx).Model(&campaignModel{})
	if strings.TrimSpace(filter.BusinessID) != "" {
		tx = tx.Where("business_id = ?", strings.TrimSpace(filter.BusinessID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.CampaignType != "" {
		tx = tx.Where("campaign_type = ?", string(filter.CampaignType))
	}

	var rows []campaignModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Campaign, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) ListPublishedPastEnd(ctx context.Context, threshold time.Time, limit int) ([]entities.Campaign, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []campaignModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(entities.CampaignStatusPublished)).
		Where("timeline_end < ?", threshold.UTC()).
		Order("timeline_end ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Campaign, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
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
		return domainerrors.ErrInvalidCampaignInput
	}
	return nil
}

type timelineWindowRow struct {
	Step    string    `json:"step"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

type campaignModel struct {
	CampaignID   string     `gorm:"column:campaign_id;primaryKey"`
	BusinessID   string     `gorm:"column:business_id"`
	Title        string     `gorm:"column:title"`
	Brief        string     `gorm:"column:brief"`
	Requirements string     `gorm:"column:requirements"`
	CampaignType string     `gorm:"column:campaign_type"`
	Slots        int        `gorm:"column:slots"`
	RewardAmount float64    `gorm:"column:reward_amount"`
	Timeline     []byte     `gorm:"column:timeline"`
	TimelineEnd  *time.Time `gorm:"column:timeline_end"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	ClosedAt     *time.Time `gorm:"column:closed_at"`
}

func (campaignModel) TableName() string {
	return "campaigns"
}

func campaignModelFromEntity(item entities.Campaign) (campaignModel, error) {
	windows := make([]timelineWindowRow, 0, len(item.Timeline))
	for _, window := range item.Timeline {
		windows = append(windows, timelineWindowRow{
			Step:    string(window.Step),
			StartAt: window.StartAt.UTC(),
			EndAt:   window.EndAt.UTC(),
		})
	}
	timeline, err := json.Marshal(windows)
	if err != nil {
		return campaignModel{}, err
	}

	// timeline_end is denormalized for the deadline worker's range scan.
	var timelineEnd *time.Time
	if end, ok := item.Schedule().End(); ok {
		end = end.UTC()
		timelineEnd = &end
	}

	return campaignModel{
		CampaignID:   strings.TrimSpace(item.CampaignID),
		BusinessID:   strings.TrimSpace(item.BusinessID),
		Title:        strings.TrimSpace(item.Title),
		Brief:        strings.TrimSpace(item.Brief),
		Requirements: strings.TrimSpace(item.Requirements),
		CampaignType: string(item.CampaignType),
		Slots:        item.Slots,
		RewardAmount: item.RewardAmount,
		Timeline:     timeline,
		TimelineEnd:  timelineEnd,
		Status:       string(item.Status),
		CreatedAt:    item.CreatedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
		PublishedAt:  normalizeOptionalTime(item.PublishedAt),
		ClosedAt:     normalizeOptionalTime(item.ClosedAt),
	}, nil
}

func campaignUpdates(row campaignModel) map[string]any {
	return map[string]any{
		"business_id":   row.BusinessID,
		"title":         row.Title,
		"brief":         row.Brief,
		"requirements":  row.Requirements,
		"campaign_type": row.CampaignType,
		"slots":         row.Slots,
		"reward_amount": row.RewardAmount,
		"timeline":      row.Timeline,
		"timeline_end":  row.TimelineEnd,
		"status":        row.Status,
		"created_at":    row.CreatedAt,
		"updated_at":    row.UpdatedAt,
		"published_at":  row.PublishedAt,
		"closed_at":     row.ClosedAt,
	}
}

func (m campaignModel) toEntity() (entities.Campaign, error) {
	var windows []timelineWindowRow
	if len(m.Timeline) > 0 {
		if err := json.Unmarshal(m.Timeline, &windows); err != nil {
			return entities.Campaign{}, err
		}
	}
	timeline := make([]entities.TimelineWindow, 0, len(windows))
	for _, window := range windows {
		timeline = append(timeline, entities.TimelineWindow{
			Step:    lifecycle.Step(window.Step),
			StartAt: window.StartAt.UTC(),
			EndAt:   window.EndAt.UTC(),
		})
	}
	return entities.Campaign{
		CampaignID:   m.CampaignID,
		BusinessID:   m.BusinessID,
		Title:        m.Title,
		Brief:        m.Brief,
		Requirements: m.Requirements,
		CampaignType: entities.CampaignType(m.CampaignType),
		Slots:        m.Slots,
		RewardAmount: m.RewardAmount,
		Timeline:     timeline,
		Status:       entities.CampaignStatus(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
		PublishedAt:  normalizeOptionalTime(m.PublishedAt),
		ClosedAt:     normalizeOptionalTime(m.ClosedAt),
	}, nil
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "campaign_idempotency"
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
	return "campaign_outbox"
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

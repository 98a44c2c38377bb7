package database

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/thiagodifaria/MoodAPI/internal/domain"
	"github.com/thiagodifaria/MoodAPI/internal/errors"
	"github.com/thiagodifaria/MoodAPI/internal/metrics"
)

// recordColumns must match the Scan order in scanRecord.
const recordColumns = `id, text, sentiment, confidence, language, all_scores, cached, created_at`

// sortColumns whitelists the indexed columns a query may sort on.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"confidence": "confidence",
	"sentiment":  "sentiment",
	"language":   "language",
}

const maxPageSize = 200

// RecordRepo is the append-only analysis history backed by PostgreSQL.
// Records are created only through Append and never mutated; ties between
// identical timestamps are resolved by the insertion sequence column.
type RecordRepo struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

// NewRecordRepo creates a RecordRepo over the shared pool.
func NewRecordRepo(pool *pgxpool.Pool, clock clockwork.Clock) *RecordRepo {
	return &RecordRepo{pool: pool, clock: clock}
}

// Append persists one record and returns its generated id. There is no
// internal retry: an ambiguous failure (write landed, ack lost) must not
// produce duplicate records, so retrying is the caller's decision.
func (r *RecordRepo) Append(ctx context.Context, rec *domain.AnalysisRecord) (uuid.UUID, error) {
	defer observe("append")()

	id := uuid.New()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.clock.Now().UTC()
	}
	scores := rec.AllScores
	if scores == nil {
		scores = []domain.LabelScore{}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO analyses (id, text, sentiment, confidence, language, all_scores, cached, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, rec.Text, rec.Sentiment, rec.Confidence, rec.Language, scores, rec.Cached, createdAt)
	if err != nil {
		return uuid.Nil, translateError("append", err)
	}

	rec.ID = id
	rec.CreatedAt = createdAt
	return id, nil
}

// Get returns the record with the given id, or a not-found error.
func (r *RecordRepo) Get(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error) {
	defer observe("get")()

	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM analyses WHERE id = $1`, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFoundError("analysis not found").WithContext("id", id.String())
		}
		return nil, translateError("get", err)
	}
	return rec, nil
}

// Delete removes the record with the given id. Returns false when the id
// does not exist; deleting twice is not an error.
func (r *RecordRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	defer observe("delete")()

	tag, err := r.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return false, translateError("delete", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Query returns one page of records matching the filter plus the total
// match count independent of pagination.
func (r *RecordRepo) Query(ctx context.Context, filter domain.Filter, sort domain.Sort, page domain.Page) ([]domain.AnalysisRecord, int, error) {
	if err := ValidateQuery(filter, sort, page); err != nil {
		return nil, 0, err
	}
	defer observe("query")()

	where, args := buildWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM analyses`+where, args...).Scan(&total); err != nil {
		return nil, 0, translateError("query", err)
	}

	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	orderBy := fmt.Sprintf(" ORDER BY %s %s, seq %s", sortColumns[sortField(sort)], dir, dir)

	args = append(args, page.Size, page.Offset())
	sql := `SELECT ` + recordColumns + ` FROM analyses` + where + orderBy +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, translateError("query", err)
	}
	defer rows.Close()

	items := make([]domain.AnalysisRecord, 0, page.Size)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, translateError("query", err)
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translateError("query", err)
	}

	return items, total, nil
}

// ValidateQuery rejects malformed filter/sort/pagination parameters before
// they touch storage.
func ValidateQuery(filter domain.Filter, sort domain.Sort, page domain.Page) error {
	if sort.Field != "" {
		if _, ok := sortColumns[sort.Field]; !ok {
			return errors.ValidationError("unsupported sort column").WithContext("sort_by", sort.Field)
		}
	}
	if page.Number < 1 {
		return errors.ValidationError("page must be >= 1")
	}
	if page.Size < 1 || page.Size > maxPageSize {
		return errors.ValidationError(fmt.Sprintf("page size must be between 1 and %d", maxPageSize))
	}
	if filter.Sentiment != "" && !domain.ValidSentiment(filter.Sentiment) {
		return errors.ValidationError("unknown sentiment label").WithContext("sentiment", filter.Sentiment)
	}
	if filter.MinConfidence != nil && (*filter.MinConfidence < 0 || *filter.MinConfidence > 1) {
		return errors.ValidationError("min_confidence must be in [0, 1]")
	}
	if filter.MaxConfidence != nil && (*filter.MaxConfidence < 0 || *filter.MaxConfidence > 1) {
		return errors.ValidationError("max_confidence must be in [0, 1]")
	}
	if filter.MinConfidence != nil && filter.MaxConfidence != nil && *filter.MinConfidence > *filter.MaxConfidence {
		return errors.ValidationError("min_confidence must not exceed max_confidence")
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return errors.ValidationError("start_date must not be after end_date")
	}
	return nil
}

func sortField(sort domain.Sort) string {
	if sort.Field == "" {
		return "created_at"
	}
	return sort.Field
}

// buildWhere renders the filter as an AND-combined WHERE clause with
// positional arguments. All filters except the substring match hit
// equality/range indexes.
func buildWhere(filter domain.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(format string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if filter.StartDate != nil {
		add("created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("created_at <= $%d", *filter.EndDate)
	}
	if filter.MinConfidence != nil {
		add("confidence >= $%d", *filter.MinConfidence)
	}
	if filter.MaxConfidence != nil {
		add("confidence <= $%d", *filter.MaxConfidence)
	}
	if filter.Sentiment != "" {
		add("sentiment = $%d", filter.Sentiment)
	}
	if filter.Language != "" {
		add("language = $%d", filter.Language)
	}
	if filter.TextContains != "" {
		add("text ILIKE $%d", "%"+escapeLike(filter.TextContains)+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.AnalysisRecord, error) {
	var rec domain.AnalysisRecord
	err := row.Scan(
		&rec.ID, &rec.Text, &rec.Sentiment, &rec.Confidence,
		&rec.Language, &rec.AllScores, &rec.Cached, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func translateError(op string, err error) error {
	metrics.DBErrors.WithLabelValues(op).Inc()
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.TimeoutError("record store operation exceeded its budget", err).WithContext("operation", op)
	}
	return errors.UnavailableError("record store unreachable", err).WithContext("operation", op)
}

func observe(op string) func() {
	start := time.Now()
	return func() {
		metrics.DBQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

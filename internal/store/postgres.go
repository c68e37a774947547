package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"talentmatch/internal/config"
	"talentmatch/internal/errors"
	"talentmatch/internal/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

//go:embed schema.sql
var schemaSQL string

// Postgres is the pgvector-backed Store
type Postgres struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	logger       *errors.Logger
}

var _ Store = (*Postgres)(nil)

// Open connects to Postgres, applying the schema first when autoMigrate is set.
func Open(ctx context.Context, cfg config.StoreConfig, logger *errors.Logger) (*Postgres, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if cfg.AutoMigrate {
		if err := Migrate(connectCtx, cfg); err != nil {
			return nil, err
		}
		logger.Info("Database schema applied", "vector_dimension", cfg.VectorDimension)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid database URL", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, unavailable("failed to connect to database", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, unavailable("failed to ping database", err)
	}

	return &Postgres{pool: pool, queryTimeout: cfg.QueryTimeout, logger: logger}, nil
}

// Migrate applies the embedded schema over a dedicated connection. The
// vector extension has to exist before pooled connections register its type.
func Migrate(ctx context.Context, cfg config.StoreConfig) error {
	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return unavailable("failed to connect to database", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, renderSchema(cfg.VectorDimension)); err != nil {
		return unavailable("failed to apply schema", err)
	}
	return nil
}

func renderSchema(dimension int) string {
	return strings.ReplaceAll(schemaSQL, "{{dimension}}", strconv.Itoa(dimension))
}

func unavailable(msg string, err error) *errors.AppError {
	return errors.NewUpstreamError(errors.ErrCodeStoreUnavailable, msg, err)
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.queryTimeout)
}

// Ping checks connectivity
func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return unavailable("database ping failed", err)
	}
	return nil
}

// Close closes the connection pool
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) UpsertJob(ctx context.Context, job types.JobPosting) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var vec *pgvector.Vector
	if job.HasVector() {
		v := pgvector.NewVector(job.Vector)
		vec = &v
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO jobs (job_id, job_title, job_description, job_creation_date, description_vector)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (job_id) DO UPDATE SET
		     job_title = EXCLUDED.job_title,
		     job_description = EXCLUDED.job_description,
		     job_creation_date = EXCLUDED.job_creation_date,
		     description_vector = EXCLUDED.description_vector`,
		job.JobID, job.Title, job.Description, job.CreatedAt, vec,
	)
	if err != nil {
		return unavailable("failed to upsert job", err).WithContext("job_id", job.JobID)
	}
	return nil
}

func (p *Postgres) GetJob(ctx context.Context, jobID string) (*types.JobPosting, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var job types.JobPosting
	var vec *pgvector.Vector
	err := p.pool.QueryRow(ctx,
		`SELECT job_id, job_title, job_description, job_creation_date, description_vector
		 FROM jobs WHERE job_id = $1`,
		jobID,
	).Scan(&job.JobID, &job.Title, &job.Description, &job.CreatedAt, &vec)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, unavailable("failed to get job", err).WithContext("job_id", jobID)
	}
	job.CreatedAt = job.CreatedAt.UTC()
	if vec != nil {
		job.Vector = vec.Slice()
	}
	return &job, nil
}

func (p *Postgres) ListJobs(ctx context.Context, limit int) ([]types.JobSummary, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.pool.Query(ctx,
		`SELECT job_id, job_title, job_creation_date
		 FROM jobs ORDER BY job_creation_date DESC, job_id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, unavailable("failed to list jobs", err)
	}
	defer rows.Close()

	jobs := []types.JobSummary{}
	for rows.Next() {
		var j types.JobSummary
		if err := rows.Scan(&j.JobID, &j.Title, &j.CreatedAt); err != nil {
			return nil, unavailable("failed to scan job", err)
		}
		j.CreatedAt = j.CreatedAt.UTC()
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("failed to list jobs", err)
	}
	return jobs, nil
}

func (p *Postgres) JobTitles(ctx context.Context, jobIDs []string) (map[string]string, error) {
	titles := make(map[string]string, len(jobIDs))
	if len(jobIDs) == 0 {
		return titles, nil
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.pool.Query(ctx, `SELECT job_id, job_title FROM jobs WHERE job_id = ANY($1)`, jobIDs)
	if err != nil {
		return nil, unavailable("failed to resolve job titles", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, unavailable("failed to scan job title", err)
		}
		titles[id] = title
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("failed to resolve job titles", err)
	}
	return titles, nil
}

func (p *Postgres) UpsertCandidate(ctx context.Context, c types.CandidateProfile) (int, error) {
	profileJSON, err := json.Marshal(c)
	if err != nil {
		return 0, errors.NewInternalError(errors.ErrCodeMalformedProfile, "failed to encode candidate profile", err)
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var digest *string
	if c.SourceDigest != "" {
		digest = &c.SourceDigest
	}

	replaced := 0
	err = pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if digest != nil {
			tag, err := tx.Exec(ctx,
				`DELETE FROM candidates
				 WHERE job_id = $1 AND source_digest = $2 AND candidate_id <> $3`,
				c.JobID, *digest, c.CandidateID,
			)
			if err != nil {
				return err
			}
			replaced = int(tag.RowsAffected())
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO candidates
			     (candidate_id, job_id, name, profile, skills_text, resume_summary, source_digest, summary_vector)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (candidate_id) DO UPDATE SET
			     job_id = EXCLUDED.job_id,
			     name = EXCLUDED.name,
			     profile = EXCLUDED.profile,
			     skills_text = EXCLUDED.skills_text,
			     resume_summary = EXCLUDED.resume_summary,
			     source_digest = EXCLUDED.source_digest,
			     summary_vector = EXCLUDED.summary_vector,
			     updated_at = now()`,
			c.CandidateID, c.JobID, c.Name, profileJSON,
			strings.Join(c.Skills.Values(), ", "), c.ResumeSummary, digest,
			pgvector.NewVector(c.SummaryVector),
		)
		return err
	})
	if err != nil {
		return 0, unavailable("failed to upsert candidate", err).
			WithContext("candidate_id", c.CandidateID).
			WithContext("job_id", c.JobID)
	}
	return replaced, nil
}

func (p *Postgres) CountCandidates(ctx context.Context, jobID string) (int, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var n int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM candidates WHERE job_id = $1`, jobID).Scan(&n); err != nil {
		return 0, unavailable("failed to count candidates", err).WithContext("job_id", jobID)
	}
	return n, nil
}

// VectorSearch ranks by cosine similarity (1 - cosine distance)
func (p *Postgres) VectorSearch(ctx context.Context, vector []float32, filter Filter, limit int) ([]Scored, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.pool.Query(ctx,
		`SELECT profile, 1 - (summary_vector <=> $1) AS score
		 FROM candidates
		 WHERE ($2::text = '' OR job_id = $2::text)
		 ORDER BY summary_vector <=> $1, candidate_id
		 LIMIT $3`,
		pgvector.NewVector(vector), filter.JobID, limit,
	)
	if err != nil {
		return nil, unavailable("vector search failed", err)
	}
	return collectScored(rows)
}

// LexicalSearch ranks by ts_rank_cd over skills and resume summary. Query
// terms are OR-ed so a long job description still matches partially.
func (p *Postgres) LexicalSearch(ctx context.Context, query string, filter Filter, limit int) ([]Scored, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.pool.Query(ctx,
		`WITH q AS (
		     SELECT to_tsquery('english', replace(plainto_tsquery('english', $1)::text, '&', '|')) AS query
		 )
		 SELECT c.profile, ts_rank_cd(c.search_document, q.query)::float8 AS score
		 FROM candidates c, q
		 WHERE c.search_document @@ q.query
		   AND ($2::text = '' OR c.job_id = $2::text)
		 ORDER BY score DESC, c.candidate_id
		 LIMIT $3`,
		query, filter.JobID, limit,
	)
	if err != nil {
		return nil, unavailable("lexical search failed", err)
	}
	return collectScored(rows)
}

func collectScored(rows pgx.Rows) ([]Scored, error) {
	defer rows.Close()

	var out []Scored
	for rows.Next() {
		var raw []byte
		var score float64
		if err := rows.Scan(&raw, &score); err != nil {
			return nil, unavailable("failed to scan candidate", err)
		}
		var profile types.CandidateProfile
		if err := json.Unmarshal(raw, &profile); err != nil {
			return nil, errors.NewSchemaError(errors.ErrCodeMalformedProfile, "stored candidate profile is corrupt", err)
		}
		out = append(out, Scored{Profile: profile, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("search failed", err)
	}
	return out, nil
}

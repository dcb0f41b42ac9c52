package db

// Schema is the reference DDL for the engine's tables. It is applied out of
// band (psql or a migration runner); the services assume these shapes.
const Schema = `
CREATE TABLE IF NOT EXISTS recordings (
    id          UUID PRIMARY KEY,
    user_id     TEXT NOT NULL,
    state       TEXT NOT NULL,
    started_at  TIMESTAMPTZ,
    summary     JSONB,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS chunks (
    recording_id    UUID NOT NULL REFERENCES recordings(id) ON DELETE CASCADE,
    metric          TEXT NOT NULL,
    chunk_index     INTEGER NOT NULL,
    start_time_ms   BIGINT NOT NULL,
    end_time_ms     BIGINT NOT NULL,
    sample_count    INTEGER NOT NULL,
    values_blob     BYTEA NOT NULL,
    timestamps_blob BYTEA NOT NULL,
    PRIMARY KEY (recording_id, metric, chunk_index)
);

CREATE TABLE IF NOT EXISTS profiles (
    user_id          TEXT PRIMARY KEY,
    ftp_watts        DOUBLE PRECISION,
    threshold_hr_bpm DOUBLE PRECISION,
    weight_kg        DOUBLE PRECISION,
    dob              TIMESTAMPTZ,
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS training_load (
    user_id TEXT NOT NULL,
    day     TIMESTAMPTZ NOT NULL,
    tss     DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (user_id, day)
);
`

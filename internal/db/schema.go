package db

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS tests (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  instructions TEXT NOT NULL DEFAULT '',
  time_limit_minutes INTEGER NOT NULL DEFAULT 0,
  allowed_attempts INTEGER,
  randomize_questions INTEGER NOT NULL DEFAULT 0,
  published INTEGER NOT NULL DEFAULT 0,
  scoring_model_json TEXT NOT NULL DEFAULT '{}',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS dimensions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  test_id INTEGER NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  dim_key TEXT NOT NULL,
  name TEXT NOT NULL,
  weight REAL NOT NULL DEFAULT 1,
  UNIQUE (test_id, dim_key)
);

CREATE TABLE IF NOT EXISTS questions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  test_id INTEGER NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  dimension_id INTEGER REFERENCES dimensions(id) ON DELETE SET NULL,
  code TEXT NOT NULL DEFAULT '',
  prompt TEXT NOT NULL DEFAULT '',
  question_type TEXT NOT NULL,
  weight REAL NOT NULL DEFAULT 1,
  is_required INTEGER NOT NULL DEFAULT 0,
  randomize_options INTEGER NOT NULL DEFAULT 0,
  base_order INTEGER NOT NULL DEFAULT 0,
  meta_json TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_questions_test ON questions(test_id, base_order, id);

CREATE TABLE IF NOT EXISTS options (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  label TEXT NOT NULL,
  value TEXT NOT NULL DEFAULT '',
  score REAL NOT NULL DEFAULT 0,
  weight REAL NOT NULL DEFAULT 1,
  position INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_options_question ON options(question_id, position, id);

CREATE TABLE IF NOT EXISTS assignments (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  test_id INTEGER NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  candidate_id INTEGER NOT NULL,
  assigned_by TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  assigned_at INTEGER NOT NULL,
  started_at INTEGER,
  completed_at INTEGER,
  expires_at INTEGER,
  time_limit_minutes INTEGER NOT NULL DEFAULT 0,
  attempts_used INTEGER NOT NULL DEFAULT 0,
  duration_seconds INTEGER,
  randomization_seed TEXT NOT NULL,
  question_order_json TEXT,
  metadata_json TEXT NOT NULL DEFAULT '{}',
  result_snapshot_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_assignments_test_candidate ON assignments(test_id, candidate_id);

CREATE TABLE IF NOT EXISTS responses (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  assignment_id INTEGER NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
  question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  option_id INTEGER,
  selected_option_ids_json TEXT NOT NULL DEFAULT '[]',
  numeric_response REAL,
  text_response TEXT,
  time_spent_seconds INTEGER,
  responded_at INTEGER NOT NULL,
  UNIQUE (assignment_id, question_id)
);

CREATE TABLE IF NOT EXISTS results (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  assignment_id INTEGER NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
  dimension_id INTEGER REFERENCES dimensions(id) ON DELETE CASCADE,
  raw_score REAL NOT NULL,
  weighted_score REAL NOT NULL,
  percentile REAL,
  band TEXT,
  meta_json TEXT NOT NULL DEFAULT '{}',
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_assignment ON results(assignment_id);

CREATE TABLE IF NOT EXISTS audit_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  event_id TEXT NOT NULL,
  test_id INTEGER,
  assignment_id INTEGER,
  candidate_id INTEGER,
  actor_id TEXT NOT NULL DEFAULT '',
  action TEXT NOT NULL,
  context_json TEXT NOT NULL DEFAULT '{}',
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS tests (
  id BIGSERIAL PRIMARY KEY,
  title TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  instructions TEXT NOT NULL DEFAULT '',
  time_limit_minutes INTEGER NOT NULL DEFAULT 0,
  allowed_attempts INTEGER,
  randomize_questions BOOLEAN NOT NULL DEFAULT FALSE,
  published BOOLEAN NOT NULL DEFAULT FALSE,
  scoring_model_json TEXT NOT NULL DEFAULT '{}',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS dimensions (
  id BIGSERIAL PRIMARY KEY,
  test_id BIGINT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  dim_key TEXT NOT NULL,
  name TEXT NOT NULL,
  weight DOUBLE PRECISION NOT NULL DEFAULT 1,
  UNIQUE (test_id, dim_key)
);

CREATE TABLE IF NOT EXISTS questions (
  id BIGSERIAL PRIMARY KEY,
  test_id BIGINT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  dimension_id BIGINT REFERENCES dimensions(id) ON DELETE SET NULL,
  code TEXT NOT NULL DEFAULT '',
  prompt TEXT NOT NULL DEFAULT '',
  question_type TEXT NOT NULL,
  weight DOUBLE PRECISION NOT NULL DEFAULT 1,
  is_required BOOLEAN NOT NULL DEFAULT FALSE,
  randomize_options BOOLEAN NOT NULL DEFAULT FALSE,
  base_order INTEGER NOT NULL DEFAULT 0,
  meta_json TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_questions_test ON questions(test_id, base_order, id);

CREATE TABLE IF NOT EXISTS options (
  id BIGSERIAL PRIMARY KEY,
  question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  label TEXT NOT NULL,
  value TEXT NOT NULL DEFAULT '',
  score DOUBLE PRECISION NOT NULL DEFAULT 0,
  weight DOUBLE PRECISION NOT NULL DEFAULT 1,
  position INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_options_question ON options(question_id, position, id);

CREATE TABLE IF NOT EXISTS assignments (
  id BIGSERIAL PRIMARY KEY,
  test_id BIGINT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  candidate_id BIGINT NOT NULL,
  assigned_by TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  assigned_at BIGINT NOT NULL,
  started_at BIGINT,
  completed_at BIGINT,
  expires_at BIGINT,
  time_limit_minutes INTEGER NOT NULL DEFAULT 0,
  attempts_used INTEGER NOT NULL DEFAULT 0,
  duration_seconds BIGINT,
  randomization_seed TEXT NOT NULL,
  question_order_json TEXT,
  metadata_json TEXT NOT NULL DEFAULT '{}',
  result_snapshot_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_assignments_test_candidate ON assignments(test_id, candidate_id);

CREATE TABLE IF NOT EXISTS responses (
  id BIGSERIAL PRIMARY KEY,
  assignment_id BIGINT NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
  question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  option_id BIGINT,
  selected_option_ids_json TEXT NOT NULL DEFAULT '[]',
  numeric_response DOUBLE PRECISION,
  text_response TEXT,
  time_spent_seconds INTEGER,
  responded_at BIGINT NOT NULL,
  UNIQUE (assignment_id, question_id)
);

CREATE TABLE IF NOT EXISTS results (
  id BIGSERIAL PRIMARY KEY,
  assignment_id BIGINT NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
  dimension_id BIGINT REFERENCES dimensions(id) ON DELETE CASCADE,
  raw_score DOUBLE PRECISION NOT NULL,
  weighted_score DOUBLE PRECISION NOT NULL,
  percentile DOUBLE PRECISION,
  band TEXT,
  meta_json TEXT NOT NULL DEFAULT '{}',
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_assignment ON results(assignment_id);

CREATE TABLE IF NOT EXISTS audit_log (
  id BIGSERIAL PRIMARY KEY,
  event_id TEXT NOT NULL,
  test_id BIGINT,
  assignment_id BIGINT,
  candidate_id BIGINT,
  actor_id TEXT NOT NULL DEFAULT '',
  action TEXT NOT NULL,
  context_json TEXT NOT NULL DEFAULT '{}',
  created_at BIGINT NOT NULL
);
`

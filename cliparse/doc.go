// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Values are resolved in three layers: a .env file in the working directory (if
present), environment variables, then CLI flags. Each layer overrides the one
before it.

# Environment Variables

	PORT               → -p            (default 3318)
	DATABASE_URL       → -d            (required)
	DATABASE_TYPE      → -t            (postgres | sqlite, default postgres)
	JWT_SECRET         → --jwt-secret  (required)
	IP_SALT            → --ip-salt
	RESUBMIT_POLICY    → --resubmit    (reject | replace, default reject)
	RESULTS_VISIBILITY → --results     (live | final, default live)
	VOTE_MAX_RETRIES   → --vote-retries (default 2)
	AUDIT_BUFFER       → --audit-buffer (default 256)
	LOG_LEVEL          → --log-level   (default info)

# Validation

ParseFlags returns an error if required values are missing or a setting is
outside its allowed values.
*/
package cliparse

package postgresql

// migrations returns the ordered schema migrations for the PostgreSQL store.
// Review requests are embedded on the execution row as JSONB, not a separate
// table; Submit locates the owning row by searching the embedded review id.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflow_executions (
				id TEXT PRIMARY KEY,
				workflow_type TEXT NOT NULL,
				status TEXT NOT NULL,
				input JSONB NOT NULL DEFAULT '{}',
				start_time TIMESTAMP WITH TIME ZONE NOT NULL,
				end_time TIMESTAMP WITH TIME ZONE,
				steps JSONB NOT NULL DEFAULT '[]',
				decision JSONB,
				review_request JSONB,
				provenance JSONB,
				outputs JSONB,
				error TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_workflow_executions_status
				ON workflow_executions (status);

			CREATE INDEX IF NOT EXISTS idx_workflow_executions_review_id
				ON workflow_executions ((review_request->>'id'))
				WHERE review_request IS NOT NULL;

			CREATE TABLE IF NOT EXISTS employees (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL,
				wallet_address TEXT NOT NULL DEFAULT '',
				gross_pay_cents BIGINT NOT NULL DEFAULT 0,
				net_pay_cents BIGINT NOT NULL DEFAULT 0,
				payment_status TEXT NOT NULL DEFAULT 'pending',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_employees_payment_status
				ON employees (payment_status);
		`,
	}
}

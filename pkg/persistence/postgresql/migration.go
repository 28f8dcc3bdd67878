package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create dynamic action events table
			CREATE TABLE dynamic_action_events (
				id VARCHAR(255) PRIMARY KEY,
				factory_id VARCHAR(255) NOT NULL,
				name TEXT NOT NULL,
				config JSONB NOT NULL DEFAULT '{}',
				triggers JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_dynamic_action_events_factory_id ON dynamic_action_events(factory_id);
			CREATE INDEX idx_dynamic_action_events_created_at ON dynamic_action_events(created_at);
		`,
	}
}

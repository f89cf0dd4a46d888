package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflow_templates (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				service_type VARCHAR(100),
				default_step_id VARCHAR(255),
				steps JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflow_templates_service_type ON workflow_templates(service_type);
			CREATE INDEX idx_workflow_templates_deleted_at ON workflow_templates(deleted_at);

			CREATE TABLE service_orders (
				id UUID PRIMARY KEY,
				customer_name VARCHAR(255) NOT NULL,
				service_type VARCHAR(100) NOT NULL,
				description TEXT,
				status VARCHAR(50) NOT NULL CHECK (status IN ('open', 'in_progress', 'completed')),
				workflow_id UUID,
				current_step INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_service_orders_status ON service_orders(status);
			CREATE INDEX idx_service_orders_workflow_id ON service_orders(workflow_id);

			CREATE TABLE workflow_executions (
				id UUID PRIMARY KEY,
				service_order_id UUID NOT NULL REFERENCES service_orders(id),
				workflow_template_id UUID NOT NULL REFERENCES workflow_templates(id),
				current_step_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('active', 'completed')),
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				step_history JSONB NOT NULL DEFAULT '[]'
			);

			-- One active execution per service order.
			CREATE UNIQUE INDEX idx_workflow_executions_active_order
				ON workflow_executions(service_order_id)
				WHERE status = 'active';
			CREATE INDEX idx_workflow_executions_status ON workflow_executions(status);
		`,
	}
}

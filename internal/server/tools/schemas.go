package tools

const dateFormat = `"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"`

const taskIDProperty = `"task_id": {"type": "string", "description": "Task id (UUID)."}`

var definitions = []struct {
	kind        Kind
	description string
	schema      string
}{
	{
		kind:        CreateTask,
		description: "Create a new active task for the current user.",
		schema: `{
			"type": "object",
			"properties": {
				"task_description": {"type": "string", "minLength": 1, "maxLength": 1000}
			},
			"required": ["task_description"],
			"additionalProperties": false
		}`,
	},
	{
		kind:        GetTask,
		description: "Fetch one task by id.",
		schema: `{
			"type": "object",
			"properties": {` + taskIDProperty + `},
			"required": ["task_id"],
			"additionalProperties": false
		}`,
	},
	{
		kind: ListTasks,
		description: "List tasks for a calendar day. Without status: tasks created that day. " +
			"active: active tasks created that day. completed: tasks completed that day. " +
			"backlog: tasks moved to backlog on or before that day.",
		schema: `{
			"type": "object",
			"properties": {
				"status": {"type": "string", "enum": ["active", "completed", "backlog"]},
				"target_date": {` + dateFormat + `, "description": "YYYY-MM-DD, defaults to today."},
				"sort_by": {"type": "string", "enum": ["created_at", "modified_at", "task_description", "current_status"]},
				"sort_order": {"type": "string", "enum": ["asc", "desc", "ASC", "DESC"]},
				"limit": {"type": "integer", "minimum": 1, "maximum": 1000},
				"offset": {"type": "integer", "minimum": 0}
			},
			"additionalProperties": false
		}`,
	},
	{
		kind:        UpdateTask,
		description: "Change a task's description and/or status.",
		schema: `{
			"type": "object",
			"properties": {` + taskIDProperty + `,
				"task_description": {"type": "string", "minLength": 1, "maxLength": 1000},
				"current_status": {"type": "string", "enum": ["active", "completed", "backlog"]}
			},
			"required": ["task_id"],
			"additionalProperties": false
		}`,
	},
	{
		kind:        DeleteTask,
		description: "Delete one task.",
		schema: `{
			"type": "object",
			"properties": {` + taskIDProperty + `},
			"required": ["task_id"],
			"additionalProperties": false
		}`,
	},
	{
		kind:        DeleteTasks,
		description: "Delete several tasks at once. Nothing is deleted if any id is unknown or not owned by the user.",
		schema: `{
			"type": "object",
			"properties": {
				"task_ids": {"type": "array", "items": {"type": "string"}, "minItems": 1}
			},
			"required": ["task_ids"],
			"additionalProperties": false
		}`,
	},
	{
		kind:        CountTasks,
		description: "Count active, completed and backlog tasks for a calendar day.",
		schema: `{
			"type": "object",
			"properties": {
				"target_date": {` + dateFormat + `, "description": "YYYY-MM-DD, defaults to today."}
			},
			"additionalProperties": false
		}`,
	},
	{
		kind:        MarkBacklog,
		description: "Move every active task created before today to backlog.",
		schema: `{
			"type": "object",
			"properties": {},
			"additionalProperties": false
		}`,
	},
}

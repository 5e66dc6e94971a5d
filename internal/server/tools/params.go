package tools

type createTaskParams struct {
	Description string `json:"task_description"`
}

type taskIDParams struct {
	TaskID string `json:"task_id"`
}

type listTasksParams struct {
	Status     string `json:"status"`
	TargetDate string `json:"target_date"`
	SortBy     string `json:"sort_by"`
	SortOrder  string `json:"sort_order"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

type updateTaskParams struct {
	TaskID      string  `json:"task_id"`
	Description *string `json:"task_description"`
	Status      *string `json:"current_status"`
}

type deleteTasksParams struct {
	TaskIDs []string `json:"task_ids"`
}

type dateParams struct {
	TargetDate string `json:"target_date"`
}

type messageResult struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

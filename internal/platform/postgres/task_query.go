package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phrazzld/task-api/internal/store"
)

const taskColumns = `id, title, description, status, priority, due_date, created_by, created_at, updated_at`

var taskFieldColumns = map[store.TaskField]string{
	store.FieldID:          "id",
	store.FieldTitle:       "title",
	store.FieldDescription: "description",
	store.FieldStatus:      "status",
	store.FieldPriority:    "priority",
	store.FieldDueDate:     "due_date",
	store.FieldCreatedAt:   "created_at",
	store.FieldUpdatedAt:   "updated_at",
}

var operatorSQL = map[store.Operator]string{
	store.OpEq:  "=",
	store.OpGt:  ">",
	store.OpGte: ">=",
	store.OpLt:  "<",
	store.OpLte: "<=",
}

// buildListQuery renders q as a parameterized SELECT. Column names and
// operators come only from the fixed maps above; every value is a bind
// parameter.
func buildListQuery(q store.TaskQuery) (string, []any, error) {
	var sb strings.Builder
	args := make([]any, 0, len(q.Filters)+3)

	sb.WriteString("SELECT ")
	sb.WriteString(taskColumns)
	sb.WriteString(" FROM tasks WHERE created_by = $1")
	args = append(args, q.OwnerID)

	for _, f := range q.Filters {
		col, ok := taskFieldColumns[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown filter field %q", f.Field)
		}
		op, ok := operatorSQL[f.Op]
		if !ok {
			return "", nil, fmt.Errorf("unknown filter operator %q", f.Op)
		}
		args = append(args, f.Value)
		sb.WriteString(" AND ")
		sb.WriteString(col)
		sb.WriteString(" ")
		sb.WriteString(op)
		sb.WriteString(" $")
		sb.WriteString(strconv.Itoa(len(args)))
	}

	order, err := orderByClause(q.Sort)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(order)

	args = append(args, q.Limit, q.Offset())
	fmt.Fprintf(&sb, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return sb.String(), args, nil
}

// orderByClause defaults to newest first and always ends with id so that
// pagination is stable. Tasks without a due date sort last in both directions.
func orderByClause(sort []store.SortField) (string, error) {
	if len(sort) == 0 {
		sort = []store.SortField{{Field: store.FieldCreatedAt, Desc: true}}
	}

	parts := make([]string, 0, len(sort)+1)
	hasID := false
	for _, s := range sort {
		col, ok := taskFieldColumns[s.Field]
		if !ok {
			return "", fmt.Errorf("unknown sort field %q", s.Field)
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		part := col + " " + dir
		if s.Field == store.FieldDueDate {
			part += " NULLS LAST"
		}
		if s.Field == store.FieldID {
			hasID = true
		}
		parts = append(parts, part)
	}
	if !hasID {
		parts = append(parts, "id ASC")
	}
	return strings.Join(parts, ", "), nil
}

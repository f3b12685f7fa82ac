package service

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/store"
)

// Query parameter names with reserved meaning in a task listing.
const (
	ParamPage      = "page"
	ParamLimit     = "limit"
	ParamSort      = "sort"
	ParamFields    = "fields"
	ParamCreatedBy = "createdBy"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// TaskListCachePrefix prefixes every cached task list key.
const TaskListCachePrefix = "tasks:"

var filterableFields = map[string]store.TaskField{
	"title":       store.FieldTitle,
	"description": store.FieldDescription,
	"status":      store.FieldStatus,
	"priority":    store.FieldPriority,
	"dueDate":     store.FieldDueDate,
	"createdAt":   store.FieldCreatedAt,
	"updatedAt":   store.FieldUpdatedAt,
}

var sortableFields = map[string]store.TaskField{
	"id":        store.FieldID,
	"title":     store.FieldTitle,
	"status":    store.FieldStatus,
	"priority":  store.FieldPriority,
	"dueDate":   store.FieldDueDate,
	"createdAt": store.FieldCreatedAt,
	"updatedAt": store.FieldUpdatedAt,
}

var projectableFields = map[string]bool{
	"id": true, "title": true, "description": true, "status": true, "priority": true,
	"dueDate": true, "createdBy": true, "createdAt": true, "updatedAt": true,
}

var operators = map[string]store.Operator{
	"eq":  store.OpEq,
	"gt":  store.OpGt,
	"gte": store.OpGte,
	"lt":  store.OpLt,
	"lte": store.OpLte,
}

// TaskListRequest is a parsed task listing.
type TaskListRequest struct {
	Query    store.TaskQuery
	Fields   []string
	CacheKey string
}

// TaskListCacheKey returns the cache key for params listed by ownerID.
// url.Values.Encode sorts keys, so parameter order does not matter.
func TaskListCacheKey(ownerID uuid.UUID, params url.Values) string {
	return TaskListCachePrefix + ownerID.String() + ":" + params.Encode()
}

// TaskListCachePattern matches every cached list of ownerID.
func TaskListCachePattern(ownerID uuid.UUID) string {
	return TaskListCachePrefix + ownerID.String() + ":*"
}

// ParseTaskQuery turns listing query parameters into a store query scoped to
// ownerID. Any client-supplied createdBy is ignored. Unknown fields,
// unsupported operators and unparsable values produce a
// *domain.ValidationError.
func ParseTaskQuery(params url.Values, ownerID uuid.UUID, maxLimit int) (*TaskListRequest, error) {
	verr := &domain.ValidationError{}

	q := store.TaskQuery{
		OwnerID: ownerID,
		Page:    positiveInt(params.Get(ParamPage), DefaultPage),
		Limit:   positiveInt(params.Get(ParamLimit), DefaultLimit),
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	// Deterministic filter order keeps the generated SQL stable.
	slices.Sort(keys)

	for _, key := range keys {
		name, opName := splitFilterKey(key)
		switch name {
		case ParamPage, ParamLimit, ParamSort, ParamFields, ParamCreatedBy:
			continue
		}

		field, ok := filterableFields[name]
		if !ok {
			verr.Add(key, fmt.Sprintf("Unknown filter field %s", name))
			continue
		}
		op, ok := operators[opName]
		if !ok {
			verr.Add(key, fmt.Sprintf("Unknown operator %s", opName))
			continue
		}
		if op != store.OpEq && !field.IsTime() {
			verr.Add(key, fmt.Sprintf("Operator %s is not supported for %s", opName, name))
			continue
		}

		for _, raw := range params[key] {
			value, msg := parseFilterValue(field, raw)
			if msg != "" {
				verr.Add(key, msg)
				continue
			}
			q.Filters = append(q.Filters, store.Filter{Field: field, Op: op, Value: value})
		}
	}

	q.Sort = parseSort(params.Get(ParamSort), verr)
	fields := parseFields(params.Get(ParamFields), verr)

	if err := verr.Err(); err != nil {
		return nil, err
	}

	return &TaskListRequest{
		Query:    q,
		Fields:   fields,
		CacheKey: TaskListCacheKey(ownerID, params),
	}, nil
}

// ProjectTasks keeps only fields (plus id) of each task. With no fields the
// tasks are returned unchanged.
func ProjectTasks(tasks []*domain.Task, fields []string) (any, error) {
	if len(fields) == 0 {
		return tasks, nil
	}

	out := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("failed to project task: %w", err)
		}
		var full map[string]any
		if err := json.Unmarshal(raw, &full); err != nil {
			return nil, fmt.Errorf("failed to project task: %w", err)
		}

		projected := map[string]any{"id": full["id"]}
		for _, f := range fields {
			if v, ok := full[f]; ok {
				projected[f] = v
			}
		}
		out = append(out, projected)
	}
	return out, nil
}

// splitFilterKey splits "dueDate[gte]" into ("dueDate", "gte"). A key
// without brackets is an equality test.
func splitFilterKey(key string) (string, string) {
	open := strings.IndexByte(key, '[')
	if open < 0 || !strings.HasSuffix(key, "]") {
		return key, "eq"
	}
	return key[:open], key[open+1 : len(key)-1]
}

func parseFilterValue(field store.TaskField, raw string) (any, string) {
	switch {
	case field.IsTime():
		ts, err := parseTime(raw)
		if err != nil {
			return nil, fmt.Sprintf("Invalid date for %s", field)
		}
		return ts, ""
	case field == store.FieldStatus:
		if !domain.TaskStatus(raw).Valid() {
			return nil, "Status must be one of: pending, in-progress, completed"
		}
	case field == store.FieldPriority:
		if !domain.TaskPriority(raw).Valid() {
			return nil, "Priority must be one of: low, medium, high"
		}
	}
	return raw, ""
}

// parseTime accepts RFC 3339 timestamps and plain dates.
func parseTime(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	return time.Parse(time.DateOnly, raw)
}

func parseSort(raw string, verr *domain.ValidationError) []store.SortField {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []store.SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		field, ok := sortableFields[name]
		if !ok {
			verr.Add(ParamSort, fmt.Sprintf("Unknown sort field %s", name))
			continue
		}
		out = append(out, store.SortField{Field: field, Desc: desc})
	}
	return out
}

func parseFields(raw string, verr *domain.ValidationError) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !projectableFields[name] {
			verr.Add(ParamFields, fmt.Sprintf("Unknown field %s", name))
			continue
		}
		out = append(out, name)
	}
	return out
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

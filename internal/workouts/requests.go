package workouts

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/2beens/fittrack/pkg"
)

type CreateWorkoutRequest struct {
	WorkoutTypeID int       `json:"workoutTypeId" validate:"required,gt=0"`
	DurationMin   int       `json:"durationMin" validate:"required,min=1,max=600"`
	Calories      *int      `json:"calories" validate:"omitnil,min=0,max=5000"`
	PerformedAt   time.Time `json:"performedAt" validate:"required"`
	Notes         *string   `json:"notes" validate:"omitnil,max=1000"`
}

func (r CreateWorkoutRequest) Workout(userID int) Workout {
	return Workout{
		UserID:        userID,
		WorkoutTypeID: r.WorkoutTypeID,
		DurationMin:   r.DurationMin,
		Calories:      r.Calories,
		PerformedAt:   r.PerformedAt,
		Notes:         r.Notes,
	}
}

// UpdateWorkoutRequest: calories and notes accept an explicit null, which clears them.
type UpdateWorkoutRequest struct {
	WorkoutTypeID *int               `json:"workoutTypeId" validate:"omitnil,gt=0"`
	DurationMin   *int               `json:"durationMin" validate:"omitnil,min=1,max=600"`
	Calories      pkg.NullableInt    `json:"calories" validate:"omitempty,min=0,max=5000"`
	PerformedAt   *time.Time         `json:"performedAt"`
	Notes         pkg.NullableString `json:"notes" validate:"omitempty,max=1000"`
}

func (r UpdateWorkoutRequest) Patch() Patch {
	return Patch{
		WorkoutTypeID: r.WorkoutTypeID,
		DurationMin:   r.DurationMin,
		Calories:      r.Calories.Value,
		ClearCalories: r.Calories.Set && r.Calories.Value == nil,
		PerformedAt:   r.PerformedAt,
		Notes:         r.Notes.Value,
		ClearNotes:    r.Notes.Set && r.Notes.Value == nil,
	}
}

// Validate checks the field bounds and that at least one field is present.
func (r UpdateWorkoutRequest) Validate() error {
	if err := pkg.ValidateStruct(r); err != nil {
		return err
	}
	if r.Patch().Empty() {
		return pkg.NewValidationError("body", "at least one field must be provided for update")
	}
	return nil
}

type listQuery struct {
	Page          int    `json:"page" validate:"min=1"`
	Limit         int    `json:"limit" validate:"min=1,max=100"`
	WorkoutTypeID *int   `json:"workoutTypeId" validate:"omitnil,gt=0"`
	SortBy        string `json:"sortBy" validate:"oneof=performedAt durationMin calories createdAt"`
	SortOrder     string `json:"sortOrder" validate:"oneof=asc desc"`
}

// ParseListParams reads the list query of GET /workouts. Defaults: page 1, limit 10,
// sorted by performedAt descending.
func ParseListParams(userID int, query url.Values) (ListParams, error) {
	vErr := &pkg.ValidationError{}
	optionalIntParam := func(name string) *int {
		raw := query.Get(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			vErr.Fields = append(vErr.Fields, pkg.FieldError{Field: name, Message: "must be an integer"})
			return nil
		}
		return &v
	}
	intParam := func(name string, def int) int {
		if v := optionalIntParam(name); v != nil {
			return *v
		}
		return def
	}
	timeParam := func(name string) *time.Time {
		raw := query.Get(name)
		if raw == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			vErr.Fields = append(vErr.Fields, pkg.FieldError{Field: name, Message: "must be an RFC3339 datetime"})
			return nil
		}
		return &t
	}

	q := listQuery{
		Page:          intParam("page", 1),
		Limit:         intParam("limit", DefaultListLimit),
		WorkoutTypeID: optionalIntParam("workoutTypeId"),
		SortBy:        query.Get("sortBy"),
		SortOrder:     query.Get("sortOrder"),
	}
	if q.SortBy == "" {
		q.SortBy = "performedAt"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
	startDate := timeParam("startDate")
	endDate := timeParam("endDate")

	if err := pkg.ValidateStruct(q); err != nil {
		var fieldsErr *pkg.ValidationError
		if errors.As(err, &fieldsErr) {
			vErr.Fields = append(vErr.Fields, fieldsErr.Fields...)
		} else {
			return ListParams{}, err
		}
	}
	if len(vErr.Fields) > 0 {
		return ListParams{}, vErr
	}

	params := ListParams{
		UserID:    userID,
		Page:      q.Page,
		Limit:     q.Limit,
		StartDate: startDate,
		EndDate:   endDate,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
	if q.WorkoutTypeID != nil {
		params.WorkoutTypeID = *q.WorkoutTypeID
	}
	return params, nil
}

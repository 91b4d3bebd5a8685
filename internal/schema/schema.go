package schema

import (
	"reflect"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/monitoria/schedconv/internal/schedule"
)

var weekScheduleType = reflect.TypeOf(schedule.WeekSchedule{})

// Generate describes a feed whose single top-level key is subject and whose
// monitors carry one array per weekday code.
func Generate(subject string, weekdays []schedule.Weekday) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == weekScheduleType || t == reflect.PointerTo(weekScheduleType) {
				return weekSchema(weekdays)
			}
			return nil
		},
	}

	doc := r.Reflect(&schedule.Document{})
	doc.Version = ""
	doc.Definitions = nil

	props := orderedmap.New[string, *jsonschema.Schema]()
	props.Set(subject, doc)

	return &jsonschema.Schema{
		Version:              jsonschema.Version,
		Title:                "Monitoring schedule feed",
		Type:                 "object",
		Properties:           props,
		Required:             []string{subject},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func weekSchema(weekdays []schedule.Weekday) *jsonschema.Schema {
	props := orderedmap.New[string, *jsonschema.Schema]()
	required := make([]string, 0, len(weekdays))
	for _, day := range weekdays {
		props.Set(string(day), &jsonschema.Schema{
			Type:  "array",
			Items: &jsonschema.Schema{Type: "string"},
		})
		required = append(required, string(day))
	}
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

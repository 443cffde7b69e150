package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/attributes/internal/cli/config"
	"github.com/conduit-lang/attributes/internal/cli/ui"
	"github.com/conduit-lang/attributes/internal/orm/attribute"
	"github.com/conduit-lang/attributes/internal/orm/schema"
	"github.com/conduit-lang/attributes/internal/orm/types"
)

var (
	verbose bool
	noColor bool
)

// env is what every command needs after reading attributes.yml
type env struct {
	config   *config.Config
	logger   *zap.Logger
	registry *types.Registry
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}

	registry := types.NewRegistry()
	if cfg.DefaultType != "value" {
		typ, err := registry.Resolve(cfg.DefaultType)
		if err != nil {
			return nil, fmt.Errorf("default_type: %w", err)
		}
		registry.SetDefault(typ)
	}

	return &env{config: cfg, logger: logger, registry: registry}, nil
}

// resource loads a schema file, or looks the name up among the resources
// in schema.dir
func (e *env) resource(ref string) (*schema.ResourceSchema, error) {
	if _, err := os.Stat(ref); err == nil {
		return schema.LoadResource(ref)
	}

	registry, err := schema.LoadDir(e.config.Schema.Dir)
	if err != nil {
		return nil, fmt.Errorf("%s is not a schema file and %w", ref, err)
	}
	resource, ok := registry.Lookup(ref)
	if !ok {
		return nil, &unknownResourceError{name: ref, known: registry.List()}
	}
	return resource, nil
}

type unknownResourceError struct {
	name  string
	known []string
}

func (e *unknownResourceError) Error() string {
	return fmt.Sprintf("unknown resource %s", e.name)
}

// parseAssignments turns ["a=1", "b=x"] into a map
func parseAssignments(pairs []string) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected name=value", pair)
		}
		values[key] = value
	}
	return values, nil
}

// buildSet loads the resource at path, hydrates it from row and applies the
// user assignments in order. The set is returned alongside an assignment
// error so callers can name the known attributes.
func (e *env) buildSet(path string, row, assignments []string) (*attribute.Set, error) {
	resource, err := e.resource(path)
	if err != nil {
		return nil, err
	}

	builder, err := e.registry.Builder(resource, e.logger)
	if err != nil {
		return nil, err
	}

	values, err := parseAssignments(row)
	if err != nil {
		return nil, err
	}
	set := builder.Build()
	if len(values) > 0 {
		set = builder.BuildFromDatabase(values)
	}

	for _, pair := range assignments {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected name=value", pair)
		}
		if err := set.WriteFromUser(name, value); err != nil {
			return set, err
		}
	}

	e.logger.Debug("built attribute set",
		zap.String("resource", resource.Name),
		zap.Int("attributes", set.Len()),
		zap.Strings("initialized", set.Keys()))
	return set, nil
}

// explain writes a friendlier rendering of errors the user can fix
func (e *env) explain(w io.Writer, set *attribute.Set, err error) {
	var missing *attribute.MissingAttributeError
	if errors.As(err, &missing) && set != nil {
		fmt.Fprint(w, ui.UnknownAttributeError(missing.Name, set.Names(), noColor))
		return
	}

	var unknown *unknownResourceError
	if errors.As(err, &unknown) {
		fmt.Fprint(w, ui.FormatError(ui.ErrorOptions{
			Context:     "unknown resource",
			Problem:     unknown.name,
			Suggestions: ui.Suggest(unknown.name, unknown.known, 3),
			Help:        []string{"Resources are read from " + e.config.Schema.Dir},
			NoColor:     noColor,
		}))
	}
}

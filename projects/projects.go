// Package projects loads the project listing from a TOML file of [[project]] tables.
package projects

import (
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/logger"
)

// Project is one entry of the listing
type Project struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	SourceURL   string `toml:"source_url"`
	DeployURL   string `toml:"deploy_url"` // Optional
	ImageURL    string `toml:"image_url"`  // Optional
}

type projectsFile struct {
	Projects []Project `toml:"project"`
}

// Load reads and validates the projects file. Keys that map to no field are
// logged as warnings rather than rejected, so typos are visible but harmless.
func Load(path string, log *zap.SugaredLogger) ([]Project, error) {
	log = logger.OrNop(log)

	var f projectsFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse projects file %s", path)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		log.Warnw("Projects file has unknown keys",
			logger.FieldFile, path,
			"keys", strings.Join(keys, ", "),
		)
	}

	for i, p := range f.Projects {
		if err := p.validate(); err != nil {
			return nil, errors.Wrapf(err, "project #%d in %s", i+1, path)
		}
	}

	return f.Projects, nil
}

func (p Project) validate() error {
	var missing []string
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(p.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(p.SourceURL) == "" {
		missing = append(missing, "source_url")
	}
	if len(missing) > 0 {
		err := errors.Newf("missing required field(s): %s", strings.Join(missing, ", "))
		if p.Title != "" {
			err = errors.WithDetailf(err, "title=%q", p.Title)
		}
		return errors.WithHint(err, "every [[project]] needs title, description and source_url")
	}
	return nil
}

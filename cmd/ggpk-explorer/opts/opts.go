package opts

import (
	"github.com/caltus/ggpk-explorer-sub001/pkg/config"
	"github.com/caltus/ggpk-explorer-sub001/pkg/session"
)

// 🔧 RootOpts holds dependencies shared by all commands
type RootOpts struct {
	// Config is the loaded explorer configuration
	Config *config.Config
	// Debug indicates whether debug logging is enabled
	Debug bool
}

// SessionOptions builds session options from the loaded config.
func (o *RootOpts) SessionOptions() session.Options {
	regions := make([]session.Region, 0, len(o.Config.Regions))
	for _, r := range o.Config.Regions {
		regions = append(regions, session.Region{
			Name:   r.Name,
			Offset: r.Offset,
			Length: r.Length,
		})
	}
	return session.Options{
		ArchivePath:  o.Config.Archive.Path,
		QueueName:    o.Config.Archive.QueueName,
		Regions:      regions,
		DrainTimeout: o.Config.Archive.DrainTimeout(),
	}
}

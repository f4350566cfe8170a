// Package options holds the dependencies commands use, so tests can replace them.
package options

import (
	"fmt"
	"io"
	"os"

	"github.com/mozilla-ai/mcpfleet/internal/config"
	"github.com/mozilla-ai/mcpfleet/internal/transport"
)

type CmdOption func(*CmdOptions) error

type CmdOptions struct {
	// ConfigLoader loads configuration files.
	// When nil, commands build a DefaultLoader resolving variables from the environment (and any env file).
	ConfigLoader config.Loader

	// ConfigInitializer creates new configuration files.
	ConfigInitializer config.Initializer

	// TransportFactory builds transports for configured servers.
	// When nil, commands build a DefaultFactory.
	TransportFactory transport.Factory

	// Out is where command results are written.
	Out io.Writer
}

func defaultOptions() CmdOptions {
	return CmdOptions{
		ConfigInitializer: &config.DefaultLoader{},
		Out:               os.Stdout,
	}
}

func NewOptions(opt ...CmdOption) (CmdOptions, error) {
	opts := defaultOptions()

	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return CmdOptions{}, err
		}
	}
	return opts, nil
}

func WithConfigLoader(l config.Loader) CmdOption {
	return func(o *CmdOptions) error {
		if l == nil {
			return fmt.Errorf("config loader cannot be nil")
		}
		o.ConfigLoader = l
		return nil
	}
}

func WithConfigInitializer(i config.Initializer) CmdOption {
	return func(o *CmdOptions) error {
		if i == nil {
			return fmt.Errorf("config initializer cannot be nil")
		}
		o.ConfigInitializer = i
		return nil
	}
}

func WithTransportFactory(f transport.Factory) CmdOption {
	return func(o *CmdOptions) error {
		if f == nil {
			return fmt.Errorf("transport factory cannot be nil")
		}
		o.TransportFactory = f
		return nil
	}
}

func WithOutput(w io.Writer) CmdOption {
	return func(o *CmdOptions) error {
		if w == nil {
			return fmt.Errorf("output writer cannot be nil")
		}
		o.Out = w
		return nil
	}
}

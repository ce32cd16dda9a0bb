package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"typeindex/internal/platform/config"
	"typeindex/internal/typeindex/handler"
	"typeindex/internal/typeindex/models"
	"typeindex/internal/typeindex/ports"
)

func newInitCmd(a *app) *cobra.Command {
	var container string
	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Create the type index documents and link them from the profile",
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := a.profile(ctx)
			if err != nil {
				return err
			}
			p, err = a.module.Service.InitializeRegistry(ctx, p, container, ports.RequestOptions{})
			if err != nil {
				return err
			}
			return a.printProfile(p)
		},
	}
	cmd.Flags().StringVar(&container, "container", "", "container for the index documents (default: next to the profile)")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Short:   "Show the type indexes linked from the profile",
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.loadedProfile(cmd.Context())
			if err != nil {
				return err
			}
			return a.printProfile(p)
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var class string
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List where instances of a class are registered",
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := a.loadedProfile(ctx)
			if err != nil {
				return err
			}
			return a.printRegistrations(class, a.module.Service.RegistrationsForClass(ctx, p, class))
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "RDF class IRI")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var (
		req     handler.RegisterRequest
		private bool
	)
	cmd := &cobra.Command{
		Use:     "register",
		Short:   "Register a location for a class",
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Visibility = visibilityFlag(private)
			if err := req.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			p, err := a.profile(ctx)
			if err != nil {
				return err
			}
			p, err = a.module.Service.RegisterType(ctx, p, req.ToDomain(), ports.RequestOptions{})
			if err != nil {
				return err
			}
			return a.printRegistrations(req.Class, a.module.Service.RegistrationsForClass(ctx, p, req.Class))
		},
	}
	cmd.Flags().StringVar(&req.Class, "class", "", "RDF class IRI")
	cmd.Flags().StringVar(&req.Location, "location", "", "instance or container IRI")
	cmd.Flags().StringVar(&req.LocationType, "type", "container", "container or instance")
	cmd.Flags().BoolVar(&private, "private", false, "register in the private (unlisted) index")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("location")
	return cmd
}

func newUnregisterCmd(a *app) *cobra.Command {
	var (
		class, location string
		private         bool
	)
	cmd := &cobra.Command{
		Use:     "unregister",
		Short:   "Remove the registrations of a class, optionally only for one location",
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := a.loadedProfile(ctx)
			if err != nil {
				return err
			}
			req := models.UnregisterRequest{Class: class, Location: location, Visibility: models.FromListed(!private)}
			p, err = a.module.Service.UnregisterType(ctx, p, req, ports.RequestOptions{})
			if err != nil {
				return err
			}
			return a.printRegistrations(class, a.module.Service.RegistrationsForClass(ctx, p, class))
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "RDF class IRI")
	cmd.Flags().StringVar(&location, "location", "", "only remove registrations for this location")
	cmd.Flags().BoolVar(&private, "private", false, "edit the private (unlisted) index")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}

func newWriteConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "write-config <path>",
		Short: "Write the default configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := config.Default().WriteFile(args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(a.out, "wrote %s\n", args[0])
			return err
		},
	}
}

func visibilityFlag(private bool) string {
	if private {
		return "unlisted"
	}
	return "listed"
}

func (a *app) printProfile(p models.Profile) error {
	view := handler.FromProfile(p)
	if a.jsonOut {
		return a.printJSON(view)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "webid\t%s\n", view.WebID)
	fmt.Fprintf(tw, "profile\t%s\n", view.ProfileDocument)
	if view.Preferences != "" {
		fmt.Fprintf(tw, "preferences\t%s\n", view.Preferences)
	}
	for _, row := range []struct {
		name  string
		index handler.IndexResponse
	}{{"public index", view.Listed}, {"private index", view.Unlisted}} {
		switch {
		case row.index.URI == "":
			fmt.Fprintf(tw, "%s\t(none)\n", row.name)
		case !row.index.Loaded:
			fmt.Fprintf(tw, "%s\t%s (unavailable)\n", row.name, row.index.URI)
		default:
			fmt.Fprintf(tw, "%s\t%s (%d triples)\n", row.name, row.index.URI, row.index.Triples)
		}
	}
	return tw.Flush()
}

func (a *app) printRegistrations(class string, regs []models.Registration) error {
	view := handler.FromRegistrations(class, regs)
	if a.jsonOut {
		return a.printJSON(view)
	}
	if len(view.Registrations) == 0 {
		_, err := fmt.Fprintf(a.out, "no registrations for %s\n", class)
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VISIBILITY\tTYPE\tLOCATION")
	for _, r := range view.Registrations {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Visibility, r.LocationType, r.Location)
	}
	return tw.Flush()
}

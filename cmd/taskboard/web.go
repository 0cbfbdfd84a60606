package main

import (
	"github.com/spf13/cobra"

	"github.com/amonks/taskboard/web"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the browser task board",
	Args:  cobra.NoArgs,
	RunE:  runWeb,
}

var (
	webAddr          string
	webSecureCookies bool
)

func init() {
	rootCmd.AddCommand(webCmd)
	webCmd.Flags().StringVar(&webAddr, "addr", "", "Listen address (default from config)")
	webCmd.Flags().BoolVar(&webSecureCookies, "secure-cookies", false, "Mark the identity cookie Secure (for HTTPS deployments)")
}

func runWeb(cmd *cobra.Command, args []string) error {
	addr := env.cfg.Web.Addr
	if cmd.Flags().Changed("addr") {
		addr = webAddr
	}
	handler := web.NewHandler(web.Options{
		API:           newAPIClient(),
		Logger:        env.logger.WithField("component", "web"),
		SecureCookies: webSecureCookies,
	})
	env.logger.WithField("api_url", env.cfg.Client.APIURL).Info("using task backend")
	return handler.Serve(addr)
}

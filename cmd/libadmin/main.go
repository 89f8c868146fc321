// Command libadmin is the operator CLI: schema migration and account provisioning.
package main

import (
	"os"

	"github.com/cloudwego/hertz/pkg/common/hlog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		hlog.Errorf("libadmin: %v", err)
		os.Exit(1)
	}
}

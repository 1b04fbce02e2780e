// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// A full do script for a docker-compose project: container shells, log
// tailing, migrations, and a guarded release flow.
package main

import (
	"os"

	"github.com/dootrun/doot/pkg/argp"
	"github.com/dootrun/doot/pkg/doot"
	"github.com/dootrun/doot/pkg/runner"
)

const splash = `                     _
__      _____   ___ | |_
\ \ /\ / / _ \ / _ \| __|
 \ V  V / (_) | (_) | |_
  \_/\_/ \___/ \___/ \__|`

var do = doot.New(
	doot.WithSplash(splash),
	doot.WithDefaultContainer("api"),
)

func arg(flags []string, opts ...argp.Option) *argp.Arg {
	a, err := argp.NewArg(flags, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

func main() {
	os.Setenv("DOCKER_BUILDKIT", "1")
	os.Setenv("COMPOSE_DOCKER_CLI_BUILD", "1")

	do.MustRegister(doot.TaskDef{
		Name:       "bash",
		Doc:        "Bash shell on the api container.",
		AllowExtra: true,
		Fn: func(_ *argp.Values, extra []string) {
			do.CRun("bash", runner.WithExtra(extra))
		},
	})

	do.MustRegister(doot.TaskDef{
		Name: "start",
		Doc:  "Start all services.",
		Fn: func() {
			do.Run("docker network create awesome")
			do.Run("docker compose up -d")
		},
	})

	do.MustRegister(doot.TaskDef{
		Name: "stop",
		Doc:  "Stop all services.",
		Fn: func() {
			do.Run("docker compose stop")
		},
	})

	do.MustRegister(doot.TaskDef{
		Name:       "logs",
		Doc:        "Show logs for the main api container.",
		AllowExtra: true,
		Fn: func(_ *argp.Values, extra []string) {
			do.Run("docker logs -f -n 1000 api", runner.WithExtra(extra))
		},
	})

	do.MustRegister(doot.TaskDef{
		Name: "db",
		Doc:  "Execute a database shell.",
		Fn: func() {
			do.CRun("psql -U postgres postgres", runner.WithContainer("database"))
		},
	})

	do.MustRegister(doot.TaskDef{
		Name: "debug",
		Doc:  "Attach to the api container for debugging.",
		Fn: func() {
			do.Warn("Attaching to `api`. Type CTRL-p CTRL-q to exit.")
			do.Warn("CTRL-c will restart the container.")
			do.Run("docker attach api")
		},
	})

	do.MustRegister(doot.TaskDef{
		Name:       "lint",
		Doc:        "Lint the code.",
		AllowExtra: true,
		Fn: func(_ *argp.Values, extra []string) {
			do.CRun("yarn lint", runner.WithExtra(extra))
		},
	})

	do.MustRegister(doot.TaskDef{
		Name:       "db:migrate",
		Doc:        "Run all migrations.",
		AllowExtra: true,
		Fn: func(_ *argp.Values, extra []string) {
			do.CRun("yarn typeorm:cli migration:run", runner.WithExtra(extra))
		},
	})

	do.MustRegister(doot.TaskDef{
		Name:       "db:create-migration",
		Doc:        "Create a migration with a name.",
		AllowExtra: true,
		Items: []argp.Item{
			arg([]string{"-n", "--name"}, argp.Required(), argp.WithHelp("migration file base name")),
		},
		Fn: func(v *argp.Values, extra []string) {
			do.CRun(
				"yarn typeorm:plaincli migration:create ./src/databases/migrations/default/"+v.String("name"),
				runner.WithExtra(extra),
			)
		},
	})

	do.MustRegister(doot.TaskDef{
		Name: "release",
		Doc:  "Release the staging image to production.",
		Items: []argp.Item{
			arg([]string{"-t", "--tag"}, argp.WithHelp("Optional staging tag")),
			arg([]string{"-d", "--diff"}, argp.WithAction(argp.StoreTrue), argp.WithHelp("Show diff")),
		},
		Fn: func(v *argp.Values) any {
			tag := v.String("tag")
			if tag == "" {
				do.Error("Could not find staging image tag")
				return 1
			}
			do.Run("git fetch")
			if v.Bool("diff") {
				do.Run("git diff -u origin/production.." + tag)
			}
			if !do.Confirm("Release " + tag + " to production?") {
				do.Error("ok bye")
				return 1
			}
			return do.Run("./scripts/release-production.sh " + tag)
		},
	})

	do.ExecArgs()
}

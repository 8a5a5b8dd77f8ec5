// Package cli provides the interactive Homes command-line client.
//
// It sits on top of the catalog service, the session store and the access
// gate. Anonymous visitors can browse listings and send inquiries; signed-in
// administrators also get the admin commands.
//
// Commands:
//   - browse [filter=value ...] [refresh]   list properties
//   - show <id|slug>                        show one property
//   - inquire [property-id]                 send an inquiry
//   - register / login / logout / whoami / stats
//   - admin: create, update <id>, delete <id>, inquiries [skip] [limit], read <id>
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli

// Package plugins contains the host plugins installed next to the auth server.
//
// Each plugin registers its commands in Setup:
//   - [Opener] : open_url
//   - [OSInfo] : os_info
//   - [Process] : exit
//   - [SQL] : sql_execute, sql_select (owns and closes the database)
//   - [Settings] : settings_get, settings_set
package plugins

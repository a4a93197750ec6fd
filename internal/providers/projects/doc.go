// Package projects stores generated projects and their tags.
//
// Memory keeps everything in process and backs the default server mode.
// Provider exposes any collab.ProjectStore as the "projects" service.
package projects

// package models defines the persistent data model for the playlist
// migration tool.
package models

// Package app is the application shell: it mounts the session provider scope
// around the route table and hosts the login page and logout action.
//
// Pages never receive the store directly. They read it, and the navigator,
// from the context produced by App.Mount.
package app

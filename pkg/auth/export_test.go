package auth

// Generate exposes token signing at a chosen instant for expiry tests.
var Generate = generate

// Package homeassistant reads entity states from the Home Assistant REST
// API.
//
// Inside an add-on the Supervisor proxies the core API:
//
//	GET {SUPERVISOR_URL}/api/states/{entity_id}
//	Authorization: Bearer {SUPERVISOR_TOKEN}
//
// Temperature turns an entity into a reading, accepting either a numeric
// state or a numeric "temperature" attribute.
package homeassistant

// Command pigmea is the plant-floor CLI for the pedido tracking system.
// It registers pedidos, walks them through the production stages, and
// renders the board views the planning office works from.
package main

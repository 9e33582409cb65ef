// Package sf06 implements the SHDLC commands of Sensirion SF06 liquid
// flow sensors, as found on the SCC1 sensor cable.
//
// Results are raw device units: ticks of the last measurement and of the
// totalizator. Converting them into a flow rate or a volume requires the
// scale factor reported by GetScaleFactor and is left to the caller.
package sf06

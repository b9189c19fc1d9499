// Program sigtransplant copies the Authenticode signature of a signed
// Windows PE file into another, unsigned PE file.
//
//	sigtransplant <signed input> <unsigned input> <output>
//
// The certificate table of the signed input is appended to the unsigned
// input and the certificate table data directory is pointed at it. The
// signature is not re-computed, so it will not validate against the new
// file; only its bytes are moved.
package main

func main() {
	Execute()
}

package kernel

import (
	"encoding/binary"
	"io"

	"rubin.dev/mwvalidation/chainparams"
	"rubin.dev/mwvalidation/consensus"
)

// coinbaseFeatureByte is the wire encoding of the Coinbase feature value,
// used by the version-detection heuristic below.
const coinbaseFeatureByte = uint8(Coinbase)

// SerializedProtocolVersion resolves the wire shape a kernel blob was
// actually written in (spec §4.3's "V0 and V1 share a wire shape" clause,
// generalized to V2/V3). Protocol versions 0 and 1 are always treated as
// the same shape. For versions 2 and 3, a Coinbase-featured blob omits the
// fee field entirely; this peeks at the eight bytes that would occupy a
// V0/V1 fee field and, if they read as network's consensus-known genesis
// kernel fee, concludes the sender actually produced a V0/V1-shaped blob
// rather than the V2/V3 shape the caller claimed.
func SerializedProtocolVersion(data []byte, givenVersion uint8, network consensus.Network) (uint8, error) {
	if givenVersion > 3 {
		return 0, newErr(ErrUnknownProtocolVersion, "protocol version greater than 3")
	}
	if givenVersion <= 1 {
		return 1, nil
	}
	if len(data) >= 9 && data[0] == coinbaseFeatureByte {
		possibleFee := binary.BigEndian.Uint64(data[1:9])
		if possibleFee == chainparams.Kernel(network).Fee {
			return 1, nil
		}
	}
	return givenVersion, nil
}

// Serialize produces the wire form of k for the given protocol version
// (spec §4.3): versions 0/1 always carry fee, then whichever of
// lock_height/relative_height the features imply (eight bytes, zero if
// unused); versions 2/3 omit the fee field for Coinbase kernels and encode
// relative_height in two bytes instead of eight.
func (k *Kernel) Serialize(protocolVersion uint8) ([]byte, error) {
	if protocolVersion > 3 {
		return nil, newErr(ErrUnknownProtocolVersion, "protocol version greater than 3")
	}

	buf := make([]byte, 0, MaximumSerializedLength)
	buf = append(buf, uint8(k.features))

	if protocolVersion <= 1 {
		buf = appendU64BE(buf, k.fee)
		switch k.features {
		case HeightLocked:
			buf = appendU64BE(buf, k.lockHeight)
		case NoRecentDuplicate:
			buf = appendU64BE(buf, k.relativeHeight)
		default:
			buf = appendU64BE(buf, 0)
		}
	} else {
		if k.features != Coinbase {
			buf = appendU64BE(buf, k.fee)
		}
		switch k.features {
		case HeightLocked:
			buf = appendU64BE(buf, k.lockHeight)
		case NoRecentDuplicate:
			buf = appendU16BE(buf, uint16(k.relativeHeight))
		}
	}

	ser := k.excess.Serialize()
	buf = append(buf, ser[:]...)
	buf = append(buf, k.signature[:]...)
	return buf, nil
}

// UnserializeKernel parses a wire-form kernel blob, resolving the
// effective shape via SerializedProtocolVersion before reading fields, and
// forwards the parsed fields to New for full construction-time validation
// (feature-combination checks, signature verification, genesis equality).
// It returns the parsed kernel and the number of bytes consumed.
func UnserializeKernel(data []byte, protocolVersion uint8, network consensus.Network, isGenesis bool) (*Kernel, int, error) {
	resolved, err := SerializedProtocolVersion(data, protocolVersion, network)
	if err != nil {
		return nil, 0, err
	}

	c := &cursor{buf: data}
	featureByte, err := c.readByte()
	if err != nil {
		return nil, 0, newErr(ErrInvalidLength, err.Error())
	}
	features := Features(featureByte)

	var fee, lockHeight, relativeHeight uint64

	if resolved <= 1 {
		fee, err = c.readU64BE()
		if err != nil {
			return nil, 0, newErr(ErrInvalidLength, err.Error())
		}
		second, err := c.readU64BE()
		if err != nil {
			return nil, 0, newErr(ErrInvalidLength, err.Error())
		}
		switch features {
		case HeightLocked:
			lockHeight = second
		case NoRecentDuplicate:
			relativeHeight = second
		}
	} else {
		if features != Coinbase {
			fee, err = c.readU64BE()
			if err != nil {
				return nil, 0, newErr(ErrInvalidLength, err.Error())
			}
		}
		switch features {
		case HeightLocked:
			lockHeight, err = c.readU64BE()
			if err != nil {
				return nil, 0, newErr(ErrInvalidLength, err.Error())
			}
		case NoRecentDuplicate:
			rh, err := c.readU16BE()
			if err != nil {
				return nil, 0, newErr(ErrInvalidLength, err.Error())
			}
			relativeHeight = uint64(rh)
		}
	}

	excessBytes, err := c.readN(ExcessLength)
	if err != nil {
		return nil, 0, newErr(ErrInvalidLength, err.Error())
	}
	var excess [ExcessLength]byte
	copy(excess[:], excessBytes)

	sigBytes, err := c.readN(SignatureLength)
	if err != nil {
		return nil, 0, newErr(ErrInvalidLength, err.Error())
	}
	var sig [SignatureLength]byte
	copy(sig[:], sigBytes)

	k, err := New(features, fee, lockHeight, relativeHeight, excess, sig, network, isGenesis)
	if err != nil {
		return nil, 0, err
	}
	return k, c.pos, nil
}

type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) readByte() (byte, error) {
	if c.pos+1 > len(c.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) readU64BE() (uint64, error) {
	if c.pos+8 > len(c.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint64(c.buf[c.pos : c.pos+8])
	c.pos += 8
	return v, nil
}

func (c *cursor) readU16BE() (uint16, error) {
	if c.pos+2 > len(c.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos : c.pos+2])
	c.pos += 2
	return v, nil
}

func (c *cursor) readN(n int) ([]byte, error) {
	if c.pos+n > len(c.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

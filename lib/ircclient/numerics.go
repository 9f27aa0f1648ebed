// released under the MIT license

package ircclient

// Command is the type of a message: an alphabetic command or a three-digit
// numeric reply.
type Command string

// Commands this client understands.
const (
	CmdPass     Command = "PASS"
	CmdNick     Command = "NICK"
	CmdUser     Command = "USER"
	CmdOper     Command = "OPER"
	CmdMode     Command = "MODE"
	CmdQuit     Command = "QUIT"
	CmdSquit    Command = "SQUIT"
	CmdJoin     Command = "JOIN"
	CmdPart     Command = "PART"
	CmdTopic    Command = "TOPIC"
	CmdNames    Command = "NAMES"
	CmdList     Command = "LIST"
	CmdInvite   Command = "INVITE"
	CmdKick     Command = "KICK"
	CmdPrivmsg  Command = "PRIVMSG"
	CmdNotice   Command = "NOTICE"
	CmdMotd     Command = "MOTD"
	CmdLusers   Command = "LUSERS"
	CmdVersion  Command = "VERSION"
	CmdStats    Command = "STATS"
	CmdTime     Command = "TIME"
	CmdAdmin    Command = "ADMIN"
	CmdInfo     Command = "INFO"
	CmdWho      Command = "WHO"
	CmdWhois    Command = "WHOIS"
	CmdWhowas   Command = "WHOWAS"
	CmdKill     Command = "KILL"
	CmdPing     Command = "PING"
	CmdPong     Command = "PONG"
	CmdError    Command = "ERROR"
	CmdAway     Command = "AWAY"
	CmdWallops  Command = "WALLOPS"
	CmdUserhost Command = "USERHOST"
	CmdIson     Command = "ISON"
)

// Numeric replies this client understands, named as in RFC 2812.
const (
	RPL_WELCOME          Command = "001"
	RPL_YOURHOST         Command = "002"
	RPL_CREATED          Command = "003"
	RPL_MYINFO           Command = "004"
	RPL_ISUPPORT         Command = "005"
	RPL_STATSCONN        Command = "250"
	RPL_LUSERCLIENT      Command = "251"
	RPL_LUSEROP          Command = "252"
	RPL_LUSERUNKNOWN     Command = "253"
	RPL_LUSERCHANNELS    Command = "254"
	RPL_LUSERME          Command = "255"
	RPL_LOCALUSERS       Command = "265"
	RPL_GLOBALUSERS      Command = "266"
	RPL_AWAY             Command = "301"
	RPL_USERHOST         Command = "302"
	RPL_ISON             Command = "303"
	RPL_UNAWAY           Command = "305"
	RPL_NOWAWAY          Command = "306"
	RPL_WHOISUSER        Command = "311"
	RPL_WHOISSERVER      Command = "312"
	RPL_WHOISOPERATOR    Command = "313"
	RPL_WHOWASUSER       Command = "314"
	RPL_ENDOFWHO         Command = "315"
	RPL_WHOISIDLE        Command = "317"
	RPL_ENDOFWHOIS       Command = "318"
	RPL_WHOISCHANNELS    Command = "319"
	RPL_LISTSTART        Command = "321"
	RPL_LIST             Command = "322"
	RPL_LISTEND          Command = "323"
	RPL_CHANNELMODEIS    Command = "324"
	RPL_CREATIONTIME     Command = "329"
	RPL_WHOISACCOUNT     Command = "330"
	RPL_NOTOPIC          Command = "331"
	RPL_TOPIC            Command = "332"
	RPL_TOPICWHOTIME     Command = "333"
	RPL_INVITING         Command = "341"
	RPL_VERSION          Command = "351"
	RPL_WHOREPLY         Command = "352"
	RPL_NAMREPLY         Command = "353"
	RPL_ENDOFNAMES       Command = "366"
	RPL_BANLIST          Command = "367"
	RPL_ENDOFBANLIST     Command = "368"
	RPL_ENDOFWHOWAS      Command = "369"
	RPL_INFO             Command = "371"
	RPL_MOTD             Command = "372"
	RPL_ENDOFINFO        Command = "374"
	RPL_MOTDSTART        Command = "375"
	RPL_ENDOFMOTD        Command = "376"
	RPL_YOUREOPER        Command = "381"
	RPL_TIME             Command = "391"
	RPL_HOSTHIDDEN       Command = "396"
	ERR_UNKNOWNERROR     Command = "400"
	ERR_NOSUCHNICK       Command = "401"
	ERR_NOSUCHSERVER     Command = "402"
	ERR_NOSUCHCHANNEL    Command = "403"
	ERR_CANNOTSENDTOCHAN Command = "404"
	ERR_TOOMANYCHANNELS  Command = "405"
	ERR_WASNOSUCHNICK    Command = "406"
	ERR_NOORIGIN         Command = "409"
	ERR_NORECIPIENT      Command = "411"
	ERR_NOTEXTTOSEND     Command = "412"
	ERR_UNKNOWNCOMMAND   Command = "421"
	ERR_NOMOTD           Command = "422"
	ERR_NONICKNAMEGIVEN  Command = "431"
	ERR_ERRONEUSNICKNAME Command = "432"
	ERR_NICKNAMEINUSE    Command = "433"
	ERR_NICKCOLLISION    Command = "436"
	ERR_UNAVAILRESOURCE  Command = "437"
	ERR_USERNOTINCHANNEL Command = "441"
	ERR_NOTONCHANNEL     Command = "442"
	ERR_USERONCHANNEL    Command = "443"
	ERR_NOTREGISTERED    Command = "451"
	ERR_NEEDMOREPARAMS   Command = "461"
	ERR_ALREADYREGISTRED Command = "462"
	ERR_PASSWDMISMATCH   Command = "464"
	ERR_YOUREBANNEDCREEP Command = "465"
	ERR_KEYSET           Command = "467"
	ERR_CHANNELISFULL    Command = "471"
	ERR_UNKNOWNMODE      Command = "472"
	ERR_INVITEONLYCHAN   Command = "473"
	ERR_BANNEDFROMCHAN   Command = "474"
	ERR_BADCHANNELKEY    Command = "475"
	ERR_BADCHANMASK      Command = "476"
	ERR_NEEDREGGEDNICK   Command = "477"
	ERR_NOPRIVILEGES     Command = "481"
	ERR_CHANOPRIVSNEEDED Command = "482"
	ERR_UMODEUNKNOWNFLAG Command = "501"
	ERR_USERSDONTMATCH   Command = "502"
)

// knownCommands is built in its initializer so package-level messages can
// be constructed before init functions run.
var knownCommands = func() map[Command]bool {
	known := make(map[Command]bool)
	for _, cmd := range []Command{
		CmdPass, CmdNick, CmdUser, CmdOper, CmdMode, CmdQuit, CmdSquit, CmdJoin,
		CmdPart, CmdTopic, CmdNames, CmdList, CmdInvite, CmdKick, CmdPrivmsg,
		CmdNotice, CmdMotd, CmdLusers, CmdVersion, CmdStats, CmdTime, CmdAdmin,
		CmdInfo, CmdWho, CmdWhois, CmdWhowas, CmdKill, CmdPing, CmdPong,
		CmdError, CmdAway, CmdWallops, CmdUserhost, CmdIson,

		RPL_WELCOME, RPL_YOURHOST, RPL_CREATED, RPL_MYINFO, RPL_ISUPPORT,
		RPL_STATSCONN, RPL_LUSERCLIENT, RPL_LUSEROP, RPL_LUSERUNKNOWN,
		RPL_LUSERCHANNELS, RPL_LUSERME, RPL_LOCALUSERS, RPL_GLOBALUSERS,
		RPL_AWAY, RPL_USERHOST, RPL_ISON, RPL_UNAWAY, RPL_NOWAWAY,
		RPL_WHOISUSER, RPL_WHOISSERVER, RPL_WHOISOPERATOR, RPL_WHOWASUSER,
		RPL_ENDOFWHO, RPL_WHOISIDLE, RPL_ENDOFWHOIS, RPL_WHOISCHANNELS,
		RPL_LISTSTART, RPL_LIST, RPL_LISTEND, RPL_CHANNELMODEIS,
		RPL_CREATIONTIME, RPL_WHOISACCOUNT, RPL_NOTOPIC, RPL_TOPIC,
		RPL_TOPICWHOTIME, RPL_INVITING, RPL_VERSION, RPL_WHOREPLY,
		RPL_NAMREPLY, RPL_ENDOFNAMES, RPL_BANLIST, RPL_ENDOFBANLIST,
		RPL_ENDOFWHOWAS, RPL_INFO, RPL_MOTD, RPL_ENDOFINFO, RPL_MOTDSTART,
		RPL_ENDOFMOTD, RPL_YOUREOPER, RPL_TIME, RPL_HOSTHIDDEN,

		ERR_UNKNOWNERROR, ERR_NOSUCHNICK, ERR_NOSUCHSERVER, ERR_NOSUCHCHANNEL,
		ERR_CANNOTSENDTOCHAN, ERR_TOOMANYCHANNELS, ERR_WASNOSUCHNICK,
		ERR_NOORIGIN, ERR_NORECIPIENT, ERR_NOTEXTTOSEND, ERR_UNKNOWNCOMMAND,
		ERR_NOMOTD, ERR_NONICKNAMEGIVEN, ERR_ERRONEUSNICKNAME,
		ERR_NICKNAMEINUSE, ERR_NICKCOLLISION, ERR_UNAVAILRESOURCE,
		ERR_USERNOTINCHANNEL, ERR_NOTONCHANNEL, ERR_USERONCHANNEL,
		ERR_NOTREGISTERED, ERR_NEEDMOREPARAMS, ERR_ALREADYREGISTRED,
		ERR_PASSWDMISMATCH, ERR_YOUREBANNEDCREEP, ERR_KEYSET,
		ERR_CHANNELISFULL, ERR_UNKNOWNMODE, ERR_INVITEONLYCHAN,
		ERR_BANNEDFROMCHAN, ERR_BADCHANNELKEY, ERR_BADCHANMASK,
		ERR_NEEDREGGEDNICK, ERR_NOPRIVILEGES, ERR_CHANOPRIVSNEEDED,
		ERR_UMODEUNKNOWNFLAG, ERR_USERSDONTMATCH,
	} {
		known[cmd] = true
	}
	return known
}()

// Known reports whether c is one of the commands or numerics above.
func (c Command) Known() bool {
	return knownCommands[c]
}

// IsNumeric reports whether c is a three-digit reply code.
func (c Command) IsNumeric() bool {
	if len(c) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if c[i] < '0' || c[i] > '9' {
			return false
		}
	}
	return true
}

// arity is the inclusive bound on the argument count of a command. A max of
// -1 means only the wire limit applies.
type arity struct {
	min, max int
}

var arities = map[Command]arity{
	CmdNick:    {1, 1},
	CmdPass:    {1, 1},
	CmdUser:    {4, 4},
	CmdQuit:    {0, 1},
	CmdJoin:    {1, 2},
	CmdPart:    {1, 2},
	CmdMode:    {2, 5},
	CmdTopic:   {1, 2},
	CmdNames:   {0, 1},
	CmdPrivmsg: {2, 2},
}

func (c Command) arity() arity {
	if a, ok := arities[c]; ok {
		return a
	}
	return arity{0, -1}
}

// freeText commands always send their last argument as a trailing one.
var freeText = map[Command]bool{
	CmdPrivmsg: true,
	CmdUser:    true,
	CmdPart:    true,
	CmdQuit:    true,
	CmdKick:    true,
}

// welcomeReplies each signal that registration has completed.
var welcomeReplies = []Command{
	RPL_WELCOME,
	RPL_LUSERCLIENT,
	RPL_LUSEROP,
	RPL_LUSERUNKNOWN,
	RPL_LUSERCHANNELS,
	RPL_LUSERME,
	RPL_ENDOFMOTD,
	ERR_NOMOTD,
}

// joinErrors are the replies a server sends instead of joining us.
var joinErrors = []Command{
	ERR_NOSUCHCHANNEL,
	ERR_TOOMANYCHANNELS,
	ERR_CHANNELISFULL,
	ERR_INVITEONLYCHAN,
	ERR_BANNEDFROMCHAN,
	ERR_BADCHANNELKEY,
	ERR_BADCHANMASK,
	ERR_NEEDREGGEDNICK,
}

// nickErrors are the replies rejecting a NICK command.
var nickErrors = []Command{
	ERR_NONICKNAMEGIVEN,
	ERR_ERRONEUSNICKNAME,
	ERR_NICKNAMEINUSE,
	ERR_NICKCOLLISION,
	ERR_UNAVAILRESOURCE,
}
